package server

import (
	"html/template"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"jasmined/internal/log"

	"github.com/dustin/go-humanize"
)

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Directory: {{.Path}}</title>
<style>
body { font-family: sans-serif; }
td { padding: 2px 12px 2px 0; }
.size, .age { color: #666; }
</style>
</head>
<body>
<h1>Directory: {{.Path}}</h1>
<table>
{{- if .HasParent}}
<tr><td><a href="../">Parent Directory</a></td><td></td><td></td></tr>
{{- end}}
{{- range .Entries}}
<tr><td><a href="{{.Href}}">{{.Name}}</a></td><td class="size">{{.Size}}</td><td class="age" title="{{.Modified}}">{{.Age}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

type listingEntry struct {
	Name     string
	Href     string
	Size     string
	Age      string
	Modified string
	isDir    bool
}

type listingPage struct {
	Path      string
	HasParent bool
	Entries   []listingEntry
}

// listDirectory renders an HTML index of dir, directories first.
func listDirectory(w http.ResponseWriter, r *http.Request, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.LogWithError(err).Warn("Cannot list directory")
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	page := listingPage{
		Path:      r.URL.Path,
		HasParent: r.URL.Path != "/",
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		entry := listingEntry{
			Name:     e.Name(),
			Href:     "./" + url.PathEscape(e.Name()),
			Size:     "-",
			Age:      humanize.Time(info.ModTime()),
			Modified: info.ModTime().Format(time.RFC1123),
			isDir:    e.IsDir(),
		}
		if e.IsDir() {
			entry.Name += "/"
			entry.Href += "/"
		} else {
			entry.Size = humanize.Bytes(uint64(info.Size()))
		}
		page.Entries = append(page.Entries, entry)
	}
	sort.SliceStable(page.Entries, func(i, j int) bool {
		a, b := page.Entries[i], page.Entries[j]
		if a.isDir != b.isDir {
			return a.isDir
		}
		return a.Name < b.Name
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}
	if err := listingTemplate.Execute(w, page); err != nil {
		log.LogWithError(err).Warn("Cannot render directory listing")
	}
}
