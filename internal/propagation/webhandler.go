package propagation

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/juergengeck/trust.core/internal/vcbridge"
	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/coreerr"
)

// writeProblem projects err to an RFC 7807 problem-details document and
// writes it with the matching status code, so callers outside this module
// see the same machine-readable kind coreerr carries internally.
func writeProblem(w http.ResponseWriter, err error) {
	problem := coreerr.AsProblem(err)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// RootCertificateHandler serves the instance's root certificate as
// sanitized JSON-LD under the optional /.well-known/certificates/root
// path. The embedding application mounts it itself; this module owns
// only the conversion logic, a small composable http.HandlerFunc rather
// than a framework-owned route.
func RootCertificateHandler(store interface {
	LatestVersion(ctx context.Context, kind, id string) (version int, obj []byte, err error)
}, rootID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, obj, err := store.LatestVersion(r.Context(), ObjectKind, rootID)
		if err != nil {
			writeProblem(w, coreerr.NewDetails(coreerr.KindNotFound, "root certificate not found"))
			return
		}

		var c certificate.Certificate
		if err := json.Unmarshal(obj, &c); err != nil {
			writeProblem(w, coreerr.NewDetails(coreerr.KindStoreFailure, "corrupt root certificate"))
			return
		}

		vc, err := vcbridge.CertToVC(&c)
		if err != nil {
			writeProblem(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/ld+json")
		_ = json.NewEncoder(w).Encode(vc.Sanitize())
	}
}
