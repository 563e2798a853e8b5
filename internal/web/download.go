package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// downloadSink is a grid.FileSink that sends the exported file as the
// HTTP response. It emits at most once.
type downloadSink struct {
	w       http.ResponseWriter
	emitted bool
	// stamp is appended to the filename so repeated downloads do not
	// overwrite each other in the browser's download folder.
	stamp string
}

func newDownloadSink(w http.ResponseWriter) *downloadSink {
	return &downloadSink{w: w, stamp: time.Now().Format("20060102_150405")}
}

// Emit implements grid.FileSink.
func (d *downloadSink) Emit(ctx context.Context, filename, mimeType string, data []byte) error {
	if d.emitted {
		return fmt.Errorf("download already sent")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.emitted = true

	h := d.w.Header()
	h.Set("Content-Type", mimeType)
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, d.downloadName(filename)))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Cache-Control", "no-store")
	d.w.WriteHeader(http.StatusOK)
	_, err := d.w.Write(data)
	return err
}

// downloadName inserts the timestamp before the extension and strips
// characters that would break the header.
func (d *downloadSink) downloadName(filename string) string {
	name := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r == '/' || r < 0x20 {
			return '_'
		}
		return r
	}, filename)
	if d.stamp == "" {
		return name
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i] + "_" + d.stamp + name[i:]
	}
	return name + "_" + d.stamp
}
