package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/pgshelf/internal/config"
	"github.com/semmidev/pgshelf/internal/domain"
)

func testSlackConfig(url string) config.SlackConfig {
	return config.SlackConfig{
		WebhookURL:     url,
		BotName:        "backup_bot",
		SuccessMessage: "Backup was successful",
		FailureMessage: "Backup failed",
	}
}

func TestSlackPayload(t *testing.T) {
	Convey("Given a Slack notifier", t, func() {
		slack := NewSlack(testSlackConfig("http://unused"))

		Convey("When the backup succeeded", func() {
			payload := slack.Payload(domain.Success{})

			Convey("It should send the success message in green", func() {
				So(payload.Attachments, ShouldHaveLength, 1)
				So(payload.Attachments[0].Color, ShouldEqual, "good")
				So(payload.Attachments[0].Text, ShouldEqual, "Backup was successful")
				So(payload.Attachments[0].Pretext, ShouldBeEmpty)
				So(payload.Username, ShouldEqual, "backup_bot")
			})
		})

		Convey("When the backup failed with a detail", func() {
			failure := domain.NewFailure(domain.StepUpload, domain.KindNetwork, errors.New("connection refused"))
			payload := slack.Payload(failure)

			Convey("It should split the failure message and the detail", func() {
				So(payload.Attachments[0].Color, ShouldEqual, "danger")
				So(payload.Attachments[0].Pretext, ShouldEqual, "Backup failed")
				So(payload.Attachments[0].Text, ShouldEqual, "connection refused")
			})
		})

		Convey("When the backup failed without a detail", func() {
			payload := slack.Payload(&domain.Failure{Step: domain.StepDump, Kind: domain.KindExit})

			Convey("It should send only the failure message", func() {
				So(payload.Attachments[0].Color, ShouldEqual, "danger")
				So(payload.Attachments[0].Text, ShouldEqual, "Backup failed")
				So(payload.Attachments[0].Pretext, ShouldBeEmpty)
			})
		})

		Convey("When channel and emoji are not configured", func() {
			raw, err := json.Marshal(slack.Payload(domain.Success{}))
			So(err, ShouldBeNil)

			var fields map[string]interface{}
			So(json.Unmarshal(raw, &fields), ShouldBeNil)

			Convey("It should leave them out of the payload", func() {
				So(fields, ShouldNotContainKey, "channel")
				So(fields, ShouldNotContainKey, "icon_emoji")
				So(fields, ShouldContainKey, "username")
			})
		})

		Convey("When channel and emoji are configured", func() {
			cfg := testSlackConfig("http://unused")
			cfg.Channel = "#ops"
			cfg.Emoji = ":floppy_disk:"
			payload := NewSlack(cfg).Payload(domain.Success{})

			Convey("It should include them", func() {
				So(payload.Channel, ShouldEqual, "#ops")
				So(payload.IconEmoji, ShouldEqual, ":floppy_disk:")
			})
		})
	})
}

func TestSlackNotify(t *testing.T) {
	Convey("Given a Slack webhook", t, func() {
		var received SlackPayload
		var contentType string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("invalid_payload"))
		}))
		defer server.Close()

		slack := NewSlack(testSlackConfig(server.URL))
		report := domain.Report{
			Filename: "2024-01-02.03:04:05.dump",
			Outcome:  domain.NewFailure(domain.StepDump, domain.KindExit, errors.New("X")),
		}

		Convey("When notifying", func() {
			body, err := slack.Notify(context.Background(), report)

			Convey("It should post JSON and return the raw body without checking the status", func() {
				So(err, ShouldBeNil)
				So(body, ShouldEqual, "invalid_payload")
				So(contentType, ShouldEqual, "application/json")
				So(received.Attachments[0].Pretext, ShouldEqual, "Backup failed")
				So(received.Attachments[0].Text, ShouldEqual, "X")
			})
		})

		Convey("When the webhook is unreachable", func() {
			unreachable := httptest.NewServer(http.NotFoundHandler())
			addr := unreachable.URL
			unreachable.Close()

			_, err := NewSlack(testSlackConfig(addr)).Notify(context.Background(), report)

			Convey("It should return the transport error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to post to slack")
			})
		})
	})
}
