package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	apiURL := flag.String("api", envOr("LDA_API_URL", "http://localhost:8080"), "Base URL of the analyzer API")
	timeout := flag.Duration("timeout", 2*time.Minute, "Request timeout")
	showText := flag.Bool("text", true, "Print the extracted text preview")
	flag.Parse()

	if flag.NArg() != 1 {
		exitErr("usage: analyze [-api URL] file.pdf")
	}
	path := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := &Client{BaseURL: *apiURL, HTTP: &http.Client{}}
	result, err := client.Upload(ctx, path)
	if err != nil {
		exitErr(err.Error())
	}
	Render(os.Stdout, result, *showText)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func exitErr(msg string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	os.Exit(1)
}
