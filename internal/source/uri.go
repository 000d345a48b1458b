package source

import (
	"net/url"
	"path/filepath"
	"strings"
)

// URIToPath converts a file:// uri to an absolute OS path. Non-file schemes
// yield "". A bare path is accepted as is.
func URIToPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return ""
	}
	p := parsed.Path
	if parsed.Scheme == "" {
		p = uri
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	p = filepath.FromSlash(p)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p
}

// PathToURI converts an OS path to a file:// uri.
func PathToURI(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String()
}

// RelativePath returns uri relative to rootURI with forward slashes, or uri
// unchanged when it is not below the root.
func RelativePath(rootURI, uri string) string {
	if rootURI == "" {
		return uri
	}
	root := strings.TrimSuffix(rootURI, "/") + "/"
	if rel, ok := strings.CutPrefix(uri, root); ok {
		if unescaped, err := url.PathUnescape(rel); err == nil {
			return unescaped
		}
		return rel
	}
	return uri
}

// JoinURI appends a slash-separated relative path to rootURI.
func JoinURI(rootURI, rel string) string {
	root := strings.TrimSuffix(rootURI, "/")
	u, err := url.Parse(root)
	if err != nil {
		return root + "/" + strings.TrimPrefix(rel, "/")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(rel, "/")
	return u.String()
}
