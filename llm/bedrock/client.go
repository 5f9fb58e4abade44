package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/plasma-umass/llm-utils/httpclient"
	"github.com/plasma-umass/llm-utils/llm"
)

// New creates a SigV4-signing adapter for the Bedrock runtime in region.
// A nil creds resolves the AWS default chain. An empty cfg.BaseURL selects
// the regional endpoint.
func New(ctx context.Context, region string, creds aws.CredentialsProvider, cfg llm.Config) (*llm.Adapter, error) {
	if creds == nil {
		var err error
		if creds, err = LoadCredentials(ctx, region); err != nil {
			return nil, err
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = Endpoint(region)
	}
	if cfg.Name == "" {
		cfg.Name = DialectName
	}
	cfg.Auth = httpclient.SignerAuth(NewSigner(creds, region).Sign)
	return llm.NewWithDialect(Dialect{}, cfg)
}
