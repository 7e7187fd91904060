// Package signer authenticates outbound search index requests.
package signer

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ossigner "github.com/opensearch-project/opensearch-go/v4/signer"
	"github.com/opensearch-project/opensearch-go/v4/signer/awsv2"
)

// DefaultService is the SigV4 signing name of Amazon OpenSearch Service.
const DefaultService = "es"

// NewSigV4 returns an AWS Signature Version 4 request signer for the index client.
// Credentials come from awsCfg's provider; the SDK cache refreshes them when they expire.
// service defaults to DefaultService ("aoss" for OpenSearch Serverless).
func NewSigV4(awsCfg aws.Config, service string) (ossigner.Signer, error) {
	if awsCfg.Credentials == nil {
		return nil, fmt.Errorf("credentials provider is required")
	}
	if awsCfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if service == "" {
		service = DefaultService
	}
	s, err := awsv2.NewSignerWithService(awsCfg, service)
	if err != nil {
		return nil, fmt.Errorf("create sigv4 signer: %w", err)
	}
	return s, nil
}
