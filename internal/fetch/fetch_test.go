package fetch

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestScriptDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("#!/usr/bin/env bash\necho hi\n"))
	}))
	defer srv.Close()

	path, cleanup, err := NewClient().Script(t.Context(), srv.URL)
	if err != nil {
		t.Fatalf("Script: %v", err)
	}
	defer cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "#!/usr/bin/env bash\necho hi\n" {
		t.Errorf("content = %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("script not executable: %v", info.Mode())
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cleanup did not remove the script")
	}
}

func TestScriptNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, _, err := NewClient().Script(t.Context(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
