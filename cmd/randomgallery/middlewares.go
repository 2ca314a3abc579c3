package main

import (
	"net/http"
	"strings"

	"github.com/adampresley/randomgallery/pkg/services"
)

func newPermissionMiddleware(permissionService services.PermissionServicer, excludedPaths []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			/*
			 * If this path is excluded, keep going.
			 */
			for _, excludedPath := range excludedPaths {
				if strings.HasPrefix(path, excludedPath) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if !permissionService.CheckRead(r) {
				http.Redirect(w, r, "/permission", http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
