package archive

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustAddFile(t *testing.T, a *Archive, name, contents string) {
	t.Helper()
	if err := a.AddFile(name, strings.NewReader(contents), 0644, "", nil); err != nil {
		t.Fatalf("AddFile(%q): %v", name, err)
	}
}

// TestCreateAndList creates an archive from two files, closes it,
// reopens it, and checks the scan finds both entries.
func TestCreateAndList(t *testing.T) {
	s := NewMemStream()
	a := Create(s, Options{CompressionLevel: 60})
	mustAddFile(t, a, "a.txt", "hello")
	mustAddFile(t, a, "sub/b.txt", "world")
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(s, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	items := reopened.Entries()
	if len(items) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(items), items)
	}
	want := map[string]int64{"a.txt": 5, "sub/b.txt": 5}
	for _, it := range items {
		if it.UncompSize != want[it.Path] {
			t.Errorf("entry %q: got size %d, want %d", it.Path, it.UncompSize, want[it.Path])
		}
		if it.Flags != ItemFile {
			t.Errorf("entry %q: got flags %v, want ItemFile", it.Path, it.Flags)
		}
	}
}

// TestRoundTrip writes several entries, reopens the archive, and
// checks that reading each one back yields identical bytes.
func TestRoundTrip(t *testing.T) {
	s := NewMemStream()
	a := Create(s, Options{CompressionLevel: 90})
	contents := map[string]string{
		"readme.txt":   "hello world",
		"dir/nested.go": strings.Repeat("package main\n", 50),
		"empty.txt":    "",
	}
	for name, body := range contents {
		mustAddFile(t, a, name, body)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(s, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for name, want := range contents {
		r, err := reopened.OpenReader(name)
		if err != nil {
			t.Fatalf("OpenReader(%q): %v", name, err)
		}
		got, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatalf("reading %q: %v", name, err)
		}
		if string(got) != want {
			t.Errorf("%q: got %q, want %q", name, got, want)
		}
	}
}

// TestWildcardExtract checks that a glob pattern with a leading '*'
// matches files nested under a directory, not just top-level ones.
func TestWildcardExtract(t *testing.T) {
	s := NewMemStream()
	a := Create(s, Options{CompressionLevel: 50})
	mustAddFile(t, a, "defs/x.def", "x")
	mustAddFile(t, a, "defs/y.def", "y")
	mustAddFile(t, a, "other.bin", "binary")
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(s, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	dest := t.TempDir()
	if err := reopened.Decompress("*.def", dest, false, nil); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for _, want := range []string{"defs/x.def", "defs/y.def"} {
		if _, err := os.Stat(dest + "/" + want); err != nil {
			t.Errorf("expected %s to exist: %v", want, err)
		}
	}
	if _, err := os.Stat(dest + "/other.bin"); !os.IsNotExist(err) {
		t.Errorf("other.bin should not have been extracted, stat err = %v", err)
	}
}

// TestRemoveEntryCompacts checks that removing a middle entry shrinks
// the archive by exactly that entry's footprint and preserves the rest.
func TestRemoveEntryCompacts(t *testing.T) {
	s := NewMemStream()
	a := Create(s, Options{CompressionLevel: 0})
	mustAddFile(t, a, "A", strings.Repeat("a", 100))
	mustAddFile(t, a, "B", strings.Repeat("b", 200))
	mustAddFile(t, a, "C", strings.Repeat("c", 50))
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	sizeBefore, _ := s.Size()

	reopened, err := Open(s, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var bFootprint int64
	for _, e := range reopened.entries {
		if e.Name == "B" {
			bFootprint = e.footprint()
		}
	}
	if err := reopened.RemoveEntry("B"); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}

	sizeAfter, _ := s.Size()
	if sizeBefore-sizeAfter != bFootprint {
		t.Errorf("size delta = %d, want %d", sizeBefore-sizeAfter, bFootprint)
	}

	if err := reopened.Close(); err != nil {
		t.Fatalf("Close after remove: %v", err)
	}

	again, err := Open(s, Options{})
	if err != nil {
		t.Fatalf("Open after remove: %v", err)
	}
	names := make([]string, 0)
	for _, it := range again.Entries() {
		names = append(names, it.Path)
	}
	if diff := cmp.Diff([]string{"A", "C"}, names); diff != "" {
		t.Errorf("entries after remove (-want +got):\n%s", diff)
	}

	for name, want := range map[string]string{"A": strings.Repeat("a", 100), "C": strings.Repeat("c", 50)} {
		r, err := again.OpenReader(name)
		if err != nil {
			t.Fatalf("OpenReader(%q): %v", name, err)
		}
		got, _ := io.ReadAll(r)
		r.Close()
		if string(got) != want {
			t.Errorf("%q: content mismatch after remove", name)
		}
	}
}

// TestScanEquivalence checks that the EOCD fast path and the linear
// fallback scan agree on the entry list for the same archive.
func TestScanEquivalence(t *testing.T) {
	s := NewMemStream()
	a := Create(s, Options{CompressionLevel: 70})
	mustAddFile(t, a, "one", "1")
	mustAddFile(t, a, "two", "22")
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fast := &Archive{stream: s, opts: Options{}.withDefaults()}
	if ok, err := fast.fastScan(mustSize(t, s)); err != nil || !ok {
		t.Fatalf("fastScan: ok=%v err=%v", ok, err)
	}

	slow := &Archive{stream: s, opts: Options{}.withDefaults()}
	if err := slow.fallbackScan(); err != nil {
		t.Fatalf("fallbackScan: %v", err)
	}

	if len(fast.entries) != len(slow.entries) {
		t.Fatalf("fast found %d entries, slow found %d", len(fast.entries), len(slow.entries))
	}
	for i := range fast.entries {
		if fast.entries[i].Name != slow.entries[i].Name {
			t.Errorf("entry %d: fast=%q slow=%q", i, fast.entries[i].Name, slow.entries[i].Name)
		}
	}
}

func mustSize(t *testing.T, s Stream) int64 {
	t.Helper()
	n, err := s.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	return n
}

func TestEmptyArchive(t *testing.T) {
	s := NewMemStream()
	a, err := Open(s, Options{})
	if err != nil {
		t.Fatalf("Open empty: %v", err)
	}
	if len(a.Entries()) != 0 {
		t.Fatalf("expected no entries in empty archive")
	}
}

func TestAddFolderThenFile(t *testing.T) {
	s := NewMemStream()
	a := Create(s, Options{})
	if err := a.AddFolder("sub"); err != nil {
		t.Fatalf("AddFolder: %v", err)
	}
	mustAddFile(t, a, "sub/file.txt", "x")
	items := a.Entries()
	if len(items) != 2 {
		t.Fatalf("got %d entries, want 2", len(items))
	}
	if items[0].Flags != ItemFolder {
		t.Errorf("first entry should be a folder, got %v", items[0].Flags)
	}
}

func TestLinkEntry(t *testing.T) {
	s := NewMemStream()
	a := Create(s, Options{})
	if err := a.AddFile("link", bytes.NewReader(nil), 0777, "target/path", nil); err != nil {
		t.Fatalf("AddFile(link): %v", err)
	}
	r, err := a.OpenReader("link")
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	got, _ := io.ReadAll(r)
	r.Close()
	if string(got) != "target/path" {
		t.Errorf("link target = %q, want %q", got, "target/path")
	}
}
