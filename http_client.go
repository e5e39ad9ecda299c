package main

import (
	"net/http"
	"time"
)

const externalHTTPTimeout = 10 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: externalHTTPTimeout,
}
