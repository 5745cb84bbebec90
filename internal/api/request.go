package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/USSTM/doc-gateway/internal/apperr"
)

const maxJSONBody = 1 << 20

// decodeJSON reads a JSON body into dst and runs its validate tags.
func (s *Server) decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", apperr.ErrValidation)
	}
	return s.validate.Struct(dst)
}
