// Package httpclient is the HTTP transport shared by the LLM dialects.
//
// A Client resolves paths against a base URL, applies default headers and
// authentication (bearer, API key, or a request signer such as AWS SigV4),
// paces requests with a token bucket, optionally retries, and classifies
// failures into *Error values. DoStream returns an SSE reader for
// text/event-stream responses.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.openai.com",
//	    Auth:    httpclient.BearerAuth(key),
//	})
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/v1/chat/completions",
//	    Body:   payload,
//	})
package httpclient
