package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long Serve waits for in-flight requests.
const ShutdownTimeout = 15 * time.Second

// Serve 阻塞到 ctx 结束或监听失败，然后优雅关闭 srv。
// 返回监听错误（正常退出为 nil），调用方随后 Close 应用。
func Serve(ctx context.Context, srv *http.Server) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var err error
	select {
	case <-ctx.Done():
		log.Println("shutting down")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if sErr := srv.Shutdown(shutdownCtx); sErr != nil {
		log.Printf("shutdown: %v", sErr)
	}
	return err
}
