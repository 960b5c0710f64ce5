// Command arcxqd serves registered archives' virtual filesystem view
// over HTTP, with gzip content negotiation on the way out.
package main

import (
	"embed"
	"flag"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/kevinpollet/nego"
	"github.com/lpar/gzipped/v2"

	"github.com/arcxq/arcxq/archive"
)

//go:embed static
var staticFS embed.FS

var (
	listen   = flag.String("listen", "localhost:7000", "address to listen on")
	archives = flag.String("archives", "", "comma-separated name=path pairs to register at startup")
)

func registerArchives(spec string) error {
	if spec == "" {
		return nil
	}
	for _, pair := range strings.Split(spec, ",") {
		name, path, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		a, _, err := archive.OpenFile(path, archive.Options{})
		if err != nil {
			return err
		}
		archive.Register(name, a)
	}
	return nil
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/archive:") {
		http.NotFound(w, r)
		return
	}
	serveVFS(w, r)
}

func serveVFS(w http.ResponseWriter, r *http.Request) {
	vfsPath := strings.TrimPrefix(r.URL.Path, "/")
	f, err := archive.OpenVFS(vfsPath)
	if err != nil {
		if archive.KindOf(err) == archive.KindMissingPath {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if nego.NegotiateContentEncoding(r, "gzip", "identity") != "gzip" {
		w.Header().Set("Content-Length", strconv.FormatInt(f.Size(), 10))
		if _, err := io.Copy(w, f); err != nil {
			log.Printf("arcxqd: serving %s: %v", vfsPath, err)
		}
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	proxy, err := archive.NewOutputProxy(archive.FormatGzip, w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(proxy, f); err != nil {
		log.Printf("arcxqd: compressing %s: %v", vfsPath, err)
		return
	}
	if _, err := proxy.Write(nil); err != nil {
		log.Printf("arcxqd: finalizing gzip stream for %s: %v", vfsPath, err)
	}
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("arcxqd: embedding static assets: %v", err)
	}
	return gzipped.FileServer(http.FS(sub))
}

func main() {
	flag.Parse()
	if err := registerArchives(*archives); err != nil {
		log.Fatalf("arcxqd: registering archives: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", staticHandler()))
	mux.HandleFunc("/", rootHandler)

	log.Printf("arcxqd: listening on %s", *listen)
	log.Fatal(http.ListenAndServe(*listen, mux))
}
