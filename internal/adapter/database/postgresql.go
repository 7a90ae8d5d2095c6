package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/semmidev/pgshelf/internal/config"
	"github.com/semmidev/pgshelf/internal/domain"
)

type PostgreSQLDatabase struct {
	config config.DatabaseConfig
}

func NewPostgreSQL(cfg config.DatabaseConfig) *PostgreSQLDatabase {
	return &PostgreSQLDatabase{config: cfg}
}

// Dump writes a custom-format archive of the database to outputPath.
func (p *PostgreSQLDatabase) Dump(ctx context.Context, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return domain.NewFailure(domain.StepDump, classifyFS(err), err)
	}
	defer out.Close()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.config.Executable, p.args()...)
	cmd.Stdout = out
	cmd.Stderr = &stderr
	// Only the credentials and connect timeout reach the child.
	cmd.Env = []string{
		"PGPASSWORD=" + p.config.Password,
		"PGCONNECT_TIMEOUT=" + strconv.Itoa(p.config.ConnectTimeout),
	}

	if err := cmd.Start(); err != nil {
		return domain.NewFailure(domain.StepDump, domain.KindSpawn, err)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return domain.NewFailure(domain.StepDump, domain.KindOther, err)
		}
		failure := domain.NewFailure(domain.StepDump, domain.KindExit, err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			failure.Detail = msg
		}
		return failure
	}

	return nil
}

func (p *PostgreSQLDatabase) args() []string {
	args := []string{
		"--clean",
		"--if-exists",
		"-Fc",
		"-x",
	}
	if p.config.Host != "" {
		args = append(args, "-h", p.config.Host)
	}
	if p.config.Name != "" {
		args = append(args, "-d", p.config.Name)
	}
	if p.config.User != "" {
		args = append(args, "-U", p.config.User)
	}
	if p.config.Port > 0 {
		args = append(args, "-p", strconv.Itoa(p.config.Port))
	}
	return args
}

func (p *PostgreSQLDatabase) GetName() string {
	if p.config.Name == "" {
		return "postgresql"
	}
	return p.config.Name
}

func classifyFS(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return domain.KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return domain.KindAuth
	default:
		return domain.KindOther
	}
}

func (p *PostgreSQLDatabase) String() string {
	return fmt.Sprintf("postgresql://%s@%s:%d/%s", p.config.User, p.config.Host, p.config.Port, p.config.Name)
}
