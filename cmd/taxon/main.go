package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	domainerrors "github.com/hejijunhao/taxon/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if closeErr := rt.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints coded errors as JSON so scripts can branch on the
// code and on whether it can carry on; anything else is printed as text.
func reportError(w io.Writer, err error) {
	var de *domainerrors.Error
	if errors.As(err, &de) {
		report := struct {
			Error       *domainerrors.Error `json:"error"`
			Recoverable bool                `json:"recoverable"`
		}{de, de.Code.Recoverable()}
		if encErr := json.NewEncoder(w).Encode(report); encErr == nil {
			return
		}
	}
	fmt.Fprintf(w, "taxon: %v\n", err)
}
