package swagger

import (
	"encoding/json"
	"net/http"
	"sync"

	apispec "github.com/USSTM/doc-gateway/api"
	httpSwagger "github.com/swaggo/http-swagger"
)

// DocPath is where the UI fetches the OpenAPI document from.
const DocPath = "/swagger/doc.json"

var renderDoc = sync.OnceValues(func() ([]byte, error) {
	doc, err := apispec.GetSwagger()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
})

// ServeSwaggerJSON writes the embedded OpenAPI document as JSON. The
// document is rendered once per process.
func ServeSwaggerJSON(w http.ResponseWriter, r *http.Request) {
	body, err := renderDoc()
	if err != nil {
		http.Error(w, "Failed to load OpenAPI document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(body)
}

// UIHandler serves the Swagger UI pointed at DocPath.
func UIHandler() http.HandlerFunc {
	return httpSwagger.Handler(
		httpSwagger.URL(DocPath),
		httpSwagger.DocExpansion("list"),
	)
}
