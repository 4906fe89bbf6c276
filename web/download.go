package web

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/homework/core"
)

// download resolves a stored file path and streams it. The path is
// client-supplied, so everything that does not canonicalize to a file
// inside the upload root is a plain 404, never a directory listing and
// never a file from elsewhere.
func download(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	requested := req.PostFormValue("filePath")

	resolved, err := ctx.db.Uploads.Resolve(requested)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", requested, core.ErrNotFound)
	}

	file, err := os.Open(resolved)
	if err != nil {
		return fmt.Errorf("opening %q: %w", requested, core.ErrNotFound)
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadName(requested)+`"`)

	// headers are out once copying starts, errors can only be logged
	if _, err := io.Copy(w, file); err != nil {
		log.Printf("streaming %q: %v", requested, err)
	}
	return nil
}

// downloadName recovers the original filename from a stored name,
// which is "<contenthash>_<original>".
func downloadName(storedName string) string {
	if i := strings.Index(storedName, "_"); i >= 0 && i+1 < len(storedName) {
		storedName = storedName[i+1:]
	}
	// quotes would break the Content-Disposition header
	return strings.ReplaceAll(storedName, `"`, "")
}
