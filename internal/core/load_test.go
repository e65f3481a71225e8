package core

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/locgrid/internal/csvcodec"
)

func TestLoadFiles_BuildsGrid(t *testing.T) {
	s, id := newTestService(t, nil, nil)

	res, err := s.LoadFiles(context.Background(), id, "", []FileInput{
		BytesInput("de.csv", []byte("\"Key\",\"Value\"\n\"hello\",\"Hallo\"\n\"bye\",\"Tschüss\"")),
		BytesInput("fr.csv", []byte(`"hello","Bonjour"`)),
	})
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}

	if res.Label != "translations" {
		t.Errorf("Label = %q, want fallback label", res.Label)
	}
	if len(res.Grid.Files) != 2 || res.Grid.Files[0].Name != "de.csv" || res.Grid.Files[1].Name != "fr.csv" {
		t.Errorf("Files = %+v", res.Grid.Files)
	}
	var keys []string
	for _, r := range res.Grid.Rows {
		keys = append(keys, r.Key)
	}
	if want := []string{"bye", "hello"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %q, want %q", keys, want)
	}

	grid, err := s.Table(id)
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if grid.Stats.Empty != 1 {
		t.Errorf("Stats.Empty = %d, want 1", grid.Stats.Empty)
	}
}

// Columns follow input order even when later files finish first.
func TestLoadFiles_ColumnsFollowInputOrder(t *testing.T) {
	s, id := newTestService(t, nil, nil)

	slow := func(name string, d time.Duration) FileInput {
		return FileInput{
			Name: name,
			Size: 20,
			Open: func() (io.ReadCloser, error) {
				time.Sleep(d)
				return io.NopCloser(strings.NewReader(`"k","` + name + `"`)), nil
			},
		}
	}

	res, err := s.LoadFiles(context.Background(), id, "", []FileInput{
		slow("a.csv", 60*time.Millisecond),
		slow("b.csv", 30*time.Millisecond),
		slow("c.csv", 0),
	})
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	for i, want := range []string{"a.csv", "b.csv", "c.csv"} {
		if got := res.Grid.Files[i].Name; got != want {
			t.Errorf("Files[%d] = %q, want %q", i, got, want)
		}
		if got := res.Grid.Rows[0].Cells[i].Current; got != want {
			t.Errorf("cell %d = %q, want %q", i, got, want)
		}
	}
}

func TestLoadFiles_AllOrNothing(t *testing.T) {
	s, id := newTestService(t, nil, nil)
	loadCSV(t, s, id, "old.csv", `"k","v"`)

	_, err := s.LoadFiles(context.Background(), id, "", []FileInput{
		BytesInput("de.csv", []byte(`"hello","Hallo"`)),
		BytesInput("fr.csv", nil),
		{Name: "it.csv", Size: 4, Open: func() (io.ReadCloser, error) { return nil, errors.New("permission denied") }},
	})

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("LoadFiles() error = %v, want *LoadError", err)
	}
	if len(le.Failures) != 2 || le.Failures[0].Name != "fr.csv" || le.Failures[1].Index != 2 {
		t.Errorf("Failures = %+v", le.Failures)
	}
	if !errors.Is(err, csvcodec.ErrEmptyContent) {
		t.Error("failure should wrap ErrEmptyContent")
	}
	var re *FileReadError
	if !errors.As(err, &re) || re.Name != "it.csv" {
		t.Errorf("failure should include a FileReadError for it.csv, got %v", err)
	}

	if _, err := s.Table(id); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Table() after failed load error = %v, want ErrNotLoaded", err)
	}
}

func TestLoadFiles_OversizeRejectedBeforeRead(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = 16
	s, id := newTestService(t, cfg, nil)

	opened := false
	open := func() (io.ReadCloser, error) {
		opened = true
		return io.NopCloser(strings.NewReader(`"k","v"`)), nil
	}

	_, err := s.LoadFiles(context.Background(), id, "", []FileInput{
		{Name: "big1.csv", Size: 17, Open: open},
		{Name: "ok.csv", Size: 8, Open: open},
		{Name: "big2.csv", Size: 100, Open: open},
	})

	var tl *FileTooLargeError
	if !errors.As(err, &tl) {
		t.Fatalf("LoadFiles() error = %v, want *FileTooLargeError", err)
	}
	if want := []string{"big1.csv", "big2.csv"}; !reflect.DeepEqual(tl.Names, want) {
		t.Errorf("Names = %q, want %q", tl.Names, want)
	}
	if opened {
		t.Error("a file was opened despite the size check failing")
	}
}

func TestLoadFiles_UnderstatedSizeIsCaught(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = 16
	s, id := newTestService(t, cfg, nil)

	in := BytesInput("de.csv", []byte(`"hello","a much longer translation"`))
	in.Size = 1

	_, err := s.LoadFiles(context.Background(), id, "", []FileInput{in})
	var tl *FileTooLargeError
	if !errors.As(err, &tl) {
		t.Fatalf("LoadFiles() error = %v, want a FileTooLargeError", err)
	}
}

func TestLoadFiles_StaleGenerationDiscarded(t *testing.T) {
	s, id := newTestService(t, nil, nil)
	sess, _ := s.Session(id)

	opened := make(chan struct{})
	release := make(chan struct{})
	in := FileInput{
		Name: "de.csv",
		Size: 16,
		Open: func() (io.ReadCloser, error) {
			close(opened)
			<-release
			return io.NopCloser(strings.NewReader(`"hello","Hallo"`)), nil
		},
	}

	errc := make(chan error, 1)
	go func() {
		_, err := s.LoadFiles(context.Background(), id, "", []FileInput{in})
		errc <- err
	}()

	<-opened
	sess.Reset()
	close(release)

	if err := <-errc; !errors.Is(err, ErrStaleSession) {
		t.Fatalf("LoadFiles() error = %v, want ErrStaleSession", err)
	}
	if sess.Loaded() {
		t.Error("stale load was installed")
	}
}

func TestLoadFiles_Warnings(t *testing.T) {
	s, id := newTestService(t, nil, nil)

	res, err := s.LoadFiles(context.Background(), id, "", []FileInput{
		BytesInput("de.csv", []byte("\uFEFF\"hello\",\"Hallo\"")),
		BytesInput("fr.csv", []byte(`"hello","Bonjour"`)),
	})
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}

	if len(res.Warnings["de.csv"]) == 0 || res.Warnings["de.csv"][0].Kind != csvcodec.WarnBOM {
		t.Errorf("Warnings = %+v, want a BOM warning for de.csv", res.Warnings)
	}
	if _, ok := res.Warnings["fr.csv"]; ok {
		t.Error("clean file should have no warnings")
	}
	sess, _ := s.Session(id)
	if len(sess.Warnings()["de.csv"]) == 0 {
		t.Error("session should keep the warnings")
	}
	if res.Grid.Rows[0].Key != "hello" {
		t.Errorf("BOM leaked into key: %q", res.Grid.Rows[0].Key)
	}
}

func TestLoadFiles_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxFiles = 1
	s, id := newTestService(t, cfg, nil)
	ctx := context.Background()

	if _, err := s.LoadFiles(ctx, "missing", "", []FileInput{BytesInput("a.csv", []byte("x"))}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session error = %v", err)
	}
	if _, err := s.LoadFiles(ctx, id, "", nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("no files error = %v", err)
	}
	two := []FileInput{BytesInput("a.csv", []byte("x")), BytesInput("b.csv", []byte("x"))}
	if _, err := s.LoadFiles(ctx, id, "", two); !errors.Is(err, ErrTooManyFiles) {
		t.Errorf("too many files error = %v", err)
	}
}
