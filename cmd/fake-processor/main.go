package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"
)

// Processador de pagamento falso para rodar o gateway localmente:
// fala o mesmo protocolo form-encoded do processador real.
//
//	payment_token=tok-declined  → recusa (response=2)
//	qualquer outro token        → aprova (response=1)
func main() {
	var seq atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/transact", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		out := url.Values{}
		if r.PostForm.Get("payment_token") == "tok-declined" {
			out.Set("response", "2")
			out.Set("responsetext", "DECLINE")
		} else {
			out.Set("response", "1")
			out.Set("responsetext", "SUCCESS")
			out.Set("transactionid", strconv.FormatInt(time.Now().Unix()*1000+seq.Add(1), 10))
			out.Set("authcode", "123456")
			out.Set("avsresponse", "N")
		}

		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte(out.Encode()))
		log.Printf("sale: order=%s amount=%s -> response=%s", r.PostForm.Get("orderid"), r.PostForm.Get("amount"), out.Get("response"))
	})

	addr := ":8082"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("fake processor listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
