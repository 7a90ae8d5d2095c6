package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"google.golang.org/api/option"

	"github.com/semmidev/pgshelf/internal/config"
	"github.com/semmidev/pgshelf/internal/domain"
)

func TestGDriveStorage(t *testing.T) {
	Convey("Given a GDriveStorage against a fake Drive API", t, func() {
		tempDir, err := os.MkdirTemp("", "gdrive_storage_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		filename := "2024-01-02.03:04:05.dump"
		localPath := filepath.Join(tempDir, filename)
		So(os.WriteFile(localPath, []byte("PGDMP"), 0644), ShouldBeNil)

		status := http.StatusOK
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			if status == http.StatusOK {
				_, _ = w.Write([]byte(`{"id":"file-1","name":"` + filename + `"}`))
				return
			}
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The user does not have sufficient permissions"}}`))
		}))
		defer server.Close()

		ctx := context.Background()
		stor, err := NewGDrive(ctx, config.StorageConfig{FolderID: "folder-1"},
			option.WithEndpoint(server.URL+"/"),
			option.WithHTTPClient(server.Client()),
		)
		So(err, ShouldBeNil)

		Convey("When the upload is accepted", func() {
			err := stor.Upload(ctx, localPath, filename)

			Convey("It should succeed", func() {
				So(err, ShouldBeNil)
				So(calls, ShouldEqual, 1)
				So(stor.Location(filename), ShouldEqual, "gdrive://folder-1/"+filename)
			})
		})

		Convey("When the API refuses the upload", func() {
			status = http.StatusForbidden
			err := stor.Upload(ctx, localPath, filename)

			Convey("It should report an auth failure", func() {
				var failure *domain.Failure
				So(errors.As(err, &failure), ShouldBeTrue)
				So(failure.Kind, ShouldEqual, domain.KindAuth)
				So(failure.Detail, ShouldContainSubstring, "sufficient permissions")
			})
		})
	})
}
