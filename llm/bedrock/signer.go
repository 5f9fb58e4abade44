package bedrock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// ServiceName is the SigV4 signing name of the Bedrock runtime.
const ServiceName = "bedrock"

// LoadCredentials resolves credentials from the AWS default chain
// (environment, shared config, instance role) for region.
func LoadCredentials(ctx context.Context, region string) (aws.CredentialsProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("bedrock: no aws credentials found")
	}
	return cfg.Credentials, nil
}

// StaticCredentials returns a provider for fixed keys.
func StaticCredentials(accessKeyID, secretAccessKey, sessionToken string) aws.CredentialsProvider {
	return credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
}

// Signer signs requests with SigV4 for the Bedrock service.
type Signer struct {
	creds  aws.CredentialsProvider
	region string
	signer *v4.Signer
	now    func() time.Time
}

// NewSigner creates a Signer using creds, cached between calls.
func NewSigner(creds aws.CredentialsProvider, region string) *Signer {
	return &Signer{
		creds:  aws.NewCredentialsCache(creds),
		region: region,
		signer: v4.NewSigner(),
		now:    time.Now,
	}
}

// Sign adds SigV4 headers to req. The body is read through GetBody so the
// request stays replayable.
func (s *Signer) Sign(req *http.Request) error {
	ctx := req.Context()
	creds, err := s.creds.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("bedrock: retrieve credentials: %w", err)
	}

	payload, err := requestPayload(req)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(payload)
	hash := hex.EncodeToString(sum[:])

	if err := s.signer.SignHTTP(ctx, creds, req, hash, ServiceName, s.region, s.now()); err != nil {
		return fmt.Errorf("bedrock: sign request: %w", err)
	}
	return nil
}

func requestPayload(req *http.Request) ([]byte, error) {
	switch {
	case req.GetBody != nil:
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("bedrock: read body: %w", err)
		}
		defer func() { _ = body.Close() }()
		return io.ReadAll(body)
	case req.Body != nil && req.Body != http.NoBody:
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("bedrock: read body: %w", err)
		}
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(data))
		return data, nil
	}
	return nil, nil
}
