package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/coolbeans/collatrix/pkg/collation"
	"github.com/coolbeans/collatrix/pkg/fetch"
	"github.com/coolbeans/collatrix/pkg/vmr"
)

func writeApparatus(t *testing.T, dir, name string, witnesses ...string) string {
	t.Helper()
	document := `<TEI xmlns="http://www.tei-c.org/ns/1.0"><app n="U1">`
	for index, siglum := range witnesses {
		document += fmt.Sprintf(`<rdg n="%c" wit="#%s">r%d</rdg>`, 'a'+index, siglum, index)
	}
	document += `</app></TEI>`

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestIsFileSource(t *testing.T) {
	tests := map[string]bool{
		"acts.xml":        true,
		"dir/ACTS.XML":    true,
		"Acts.1.1-5":      false,
		"Acts":            false,
		"collation.xml.z": false,
	}
	for source, want := range tests {
		if got := IsFileSource(source); got != want {
			t.Errorf("IsFileSource(%q) = %v, want %v", source, got, want)
		}
	}
}

func TestPipeline_RunFile(t *testing.T) {
	path := writeApparatus(t, t.TempDir(), "one.xml", "01", "02")

	pipeline, err := New(collation.DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	output, err := pipeline.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if output.Grammar != "tei" {
		t.Errorf("Grammar: got %q, want tei", output.Grammar)
	}
	if output.Result.UnitCount != 1 {
		t.Errorf("UnitCount: got %d, want 1", output.Result.UnitCount)
	}

	tables := output.Tables()
	if len(tables.Witnesses) != 2 || len(tables.Readings) != 2 {
		t.Errorf("tables: %d witnesses, %d readings", len(tables.Witnesses), len(tables.Readings))
	}
}

func TestPipeline_RunMissingFile(t *testing.T) {
	pipeline, err := New(collation.DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := pipeline.Run(context.Background(), filepath.Join(t.TempDir(), "absent.xml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPipeline_RunIndexWithoutClient(t *testing.T) {
	pipeline, err := New(collation.DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := pipeline.Run(context.Background(), "Acts.1.1"); !errors.Is(err, ErrNoVMRClient) {
		t.Fatalf("got %v, want ErrNoVMRClient", err)
	}
}

func TestPipeline_RunIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte(`<apparatus><segment verse="Acts.1.1" wordsegs="2">
			<segmentReading label="a" reading="logon" witnesses="01 03"/>
			<segmentReading label="b" reading="logous" witnesses="02"/>
		</segment></apparatus>`))
	}))
	defer server.Close()

	config := fetch.DefaultFetchConfig()
	config.RateLimit = 0
	fetcher, err := fetch.NewFetcher(config, nil)
	if err != nil {
		t.Fatalf("NewFetcher failed: %v", err)
	}

	pipeline, err := New(collation.DefaultOptions(), vmr.NewClient(server.URL, fetcher, nil, nil), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	output, err := pipeline.Run(context.Background(), "Acts.1.1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if output.Grammar != "vmr" {
		t.Errorf("Grammar: got %q, want vmr", output.Grammar)
	}
	if got := output.Result.Primary.Witnesses; len(got) != 3 {
		t.Errorf("primary witnesses: got %v", got)
	}
}

func TestPipeline_RunBatch(t *testing.T) {
	dir := t.TempDir()
	sources := []string{
		writeApparatus(t, dir, "a.xml", "01"),
		writeApparatus(t, dir, "b.xml", "01", "02"),
		writeApparatus(t, dir, "c.xml", "01", "02", "03"),
	}

	pipeline, err := New(collation.DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	outputs, err := pipeline.RunBatch(context.Background(), sources, 2)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if len(outputs) != 3 {
		t.Fatalf("got %d outputs, want 3", len(outputs))
	}
	for index, output := range outputs {
		if output.Source != sources[index] {
			t.Errorf("output %d: source %q, want %q", index, output.Source, sources[index])
		}
		if got := len(output.Result.Raw.Witnesses); got != index+1 {
			t.Errorf("output %d: %d witnesses, want %d", index, got, index+1)
		}
	}
}

func TestPipeline_RunBatchFailsFast(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.xml")
	if err := os.WriteFile(broken, []byte("<TEI><app n=\"1\">"), 0o644); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	sources := []string{writeApparatus(t, dir, "ok.xml", "01"), broken}

	pipeline, err := New(collation.DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = pipeline.RunBatch(context.Background(), sources, 0)
	if !errors.Is(err, collation.ErrMalformedDocument) {
		t.Fatalf("got %v, want ErrMalformedDocument", err)
	}
}

func TestNew_RejectsBadOptions(t *testing.T) {
	options := collation.DefaultOptions()
	options.MinExtantProportion = -1
	if _, err := New(options, nil, nil); !errors.Is(err, collation.ErrThresholdOutOfRange) {
		t.Fatalf("got %v, want ErrThresholdOutOfRange", err)
	}
}
