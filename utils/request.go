package utils

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"kunena-discord/models"
)

// maxFormPeek bounds how much of a POST body is buffered for inspection.
const maxFormPeek = 1 << 20

const forumComponent = "com_kunena"

// RequestContext exposes the parts of an inbound forum request the hooks look at.
type RequestContext struct {
	method string
	admin  bool
	params url.Values
}

// NewRequestContext inspects r without consuming its body. Query parameters are
// merged with urlencoded or multipart form fields, form fields winning, mirroring
// how the CMS reads request input. Paths under adminPrefix count as the admin client.
func NewRequestContext(r *http.Request, adminPrefix string) *RequestContext {
	params := url.Values{}
	for k, v := range r.URL.Query() {
		params[k] = v
	}
	for k, v := range peekForm(r) {
		params[k] = v
	}

	admin := false
	if adminPrefix != "" {
		admin = r.URL.Path == adminPrefix || strings.HasPrefix(r.URL.Path, strings.TrimSuffix(adminPrefix, "/")+"/")
	}

	return &RequestContext{
		method: r.Method,
		admin:  admin,
		params: params,
	}
}

// IsAdminContext reports whether the request targets the administrator client.
func (c *RequestContext) IsAdminContext() bool { return c.admin }

// QueryParam returns the first value of name, or "".
func (c *RequestContext) QueryParam(name string) string { return c.params.Get(name) }

// HTTPMethod returns the request method.
func (c *RequestContext) HTTPMethod() string { return c.method }

// IsForumRender reports whether a rendered page may follow a new post: a public
// forum request posting, replying or showing a topic.
func IsForumRender(rc models.RequestContext) bool {
	if rc.IsAdminContext() || rc.QueryParam("option") != forumComponent {
		return false
	}
	task := rc.QueryParam("task")
	return task == "post" || task == "reply" || rc.QueryParam("view") == "topic"
}

// IsForumSubmission reports whether the request is a public POST to the forum.
func IsForumSubmission(rc models.RequestContext) bool {
	return !rc.IsAdminContext() &&
		rc.HTTPMethod() == http.MethodPost &&
		rc.QueryParam("option") == forumComponent
}

// peekForm reads the value fields of a urlencoded or multipart POST body and
// puts the bytes back on r.Body so the upstream still receives them. Only the
// first maxFormPeek bytes are inspected.
func peekForm(r *http.Request) url.Values {
	if r.Method != http.MethodPost || r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil
	}
	if mediaType != "application/x-www-form-urlencoded" && mediaType != "multipart/form-data" {
		return nil
	}

	head, err := io.ReadAll(io.LimitReader(r.Body, maxFormPeek))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	if err != nil {
		return nil
	}

	if mediaType == "multipart/form-data" {
		return multipartValues(head, params["boundary"])
	}
	// ParseQuery keeps every pair it could decode.
	values, _ := url.ParseQuery(string(head))
	return values
}

// multipartValues collects the non-file fields of a possibly truncated
// multipart body. Parsing stops at the first malformed or cut-off part.
func multipartValues(body []byte, boundary string) url.Values {
	if boundary == "" {
		return nil
	}
	values := url.Values{}
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			return values
		}
		name := part.FormName()
		if name == "" || part.FileName() != "" {
			part.Close()
			continue
		}
		v, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return values
		}
		values.Add(name, string(v))
	}
}

// StaticSiteRoot is a fixed public site root, always ending in "/".
type StaticSiteRoot string

// SiteRoot implements models.SiteRootProvider.
func (s StaticSiteRoot) SiteRoot() string {
	root := string(s)
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root
}
