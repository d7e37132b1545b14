// Package swagger отдаёт OpenAPI документ route-svc и страницу Swagger UI.
package swagger

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"routefinder/pkg/logger"
)

// Config настройки страницы документации
type Config struct {
	Title    string
	BasePath string
	SpecPath string
	// Version подставляется в info.version документа, если задана
	Version      string
	DocExpansion string
}

// DefaultConfig умолчания: UI на /swagger, документ на /openapi.json
func DefaultConfig() *Config {
	return &Config{
		Title:        "routefinder API",
		BasePath:     "/swagger",
		SpecPath:     "/openapi.json",
		DocExpansion: "list",
	}
}

var pageTemplate = template.Must(template.New("swagger-ui").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
    <style>body { margin: 0; } .swagger-ui .topbar { display: none; }</style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        window.ui = SwaggerUIBundle({
            url: "{{.SpecURL}}",
            dom_id: "#swagger-ui",
            deepLinking: true,
            docExpansion: "{{.DocExpansion}}",
            validatorUrl: null
        });
    </script>
</body>
</html>`))

// Handler отдаёт страницу и документ. Оба рендерятся один раз при создании.
type Handler struct {
	config *Config
	page   []byte
	spec   []byte
	etag   string
}

// NewHandler готовит страницу и документ. ETag зависит только от итогового документа.
func NewHandler(cfg *Config, spec []byte) *Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	spec = stampVersion(spec, cfg.Version)
	h := &Handler{
		config: cfg,
		spec:   spec,
		etag:   fmt.Sprintf(`"%x"`, sha256.Sum256(spec)),
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, map[string]string{
		"Title":        cfg.Title,
		"SpecURL":      cfg.BasePath + cfg.SpecPath,
		"DocExpansion": cfg.DocExpansion,
	})
	if err != nil {
		logger.Error("Failed to render swagger page", "error", err)
	}
	h.page = page.Bytes()
	return h
}

// stampVersion заменяет info.version. Документ, который не разбирается как JSON, не трогается.
func stampVersion(spec []byte, version string) []byte {
	if version == "" {
		return spec
	}

	var doc map[string]any
	if err := json.Unmarshal(spec, &doc); err != nil {
		return spec
	}
	info, _ := doc["info"].(map[string]any)
	if info == nil {
		info = map[string]any{}
	}
	info["version"] = version
	doc["info"] = info

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return spec
	}
	return out
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch strings.Trim(strings.TrimPrefix(r.URL.Path, h.config.BasePath), "/") {
	case "", "index.html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(h.page)
	case "openapi.json", "swagger.json", "api.json":
		h.ServeSpec(w, r)
	default:
		http.NotFound(w, r)
	}
}

// ServeSpec отдаёт документ; If-None-Match с текущим ETag даёт 304
func (h *Handler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	hdr := w.Header()
	hdr.Set("Content-Type", "application/json; charset=utf-8")
	hdr.Set("ETag", h.etag)
	hdr.Set("Cache-Control", "public, max-age=3600")
	hdr.Set("Access-Control-Allow-Origin", "*")

	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(h.spec))
}

// RegisterRoutes монтирует UI под BasePath и документ под /openapi.json
func RegisterRoutes(mux *http.ServeMux, cfg *Config, spec []byte) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	h := NewHandler(cfg, spec)
	mux.Handle(cfg.BasePath+"/", h)
	mux.HandleFunc("/openapi.json", h.ServeSpec)
}
