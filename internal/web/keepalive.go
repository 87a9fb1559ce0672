// Package web serves the liveness endpoint used by container health checks
// and uptime pingers.
package web

import (
	"fmt"
	"log"
	"net/http"
	"time"
)

// StartKeepAlive serves GET /healthz on the given port in a background
// goroutine. Port 0 disables the server.
func StartKeepAlive(port int) {
	if port == 0 {
		log.Println("Liveness endpoint disabled")
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Liveness endpoint listening on :%d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Liveness server error: %v", err)
		}
	}()
}
