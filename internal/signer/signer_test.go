package signer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

func staticConfig(region string) aws.Config {
	return aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider("AKID", "SECRET", "TOKEN"),
	}
}

func TestNewSigV4_SignsWithDefaultService(t *testing.T) {
	s, err := NewSigV4(staticConfig("us-east-1"), "")
	if err != nil {
		t.Fatalf("NewSigV4: %v", err)
	}

	body := []byte(`{"query":{"match_all":{}}}`)
	req, err := http.NewRequest(http.MethodPost, "https://search.example.com/photos/_search", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	if err := s.SignRequest(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	auth := req.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKID/") {
		t.Errorf("authorization: got %q", auth)
	}
	if !strings.Contains(auth, "/us-east-1/es/aws4_request") {
		t.Errorf("authorization scope: got %q", auth)
	}
	if req.Header.Get("X-Amz-Date") == "" {
		t.Error("expected X-Amz-Date header")
	}
	if req.Header.Get("X-Amz-Security-Token") != "TOKEN" {
		t.Errorf("security token: got %q", req.Header.Get("X-Amz-Security-Token"))
	}
}

func TestNewSigV4_CustomService(t *testing.T) {
	s, err := NewSigV4(staticConfig("eu-west-1"), "aoss")
	if err != nil {
		t.Fatalf("NewSigV4: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPost, "https://x.aoss.amazonaws.com/photos/_doc", bytes.NewReader([]byte(`{}`)))
	if err := s.SignRequest(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(req.Header.Get("Authorization"), "/eu-west-1/aoss/aws4_request") {
		t.Errorf("authorization: got %q", req.Header.Get("Authorization"))
	}
}

type failingProvider struct{}

func (failingProvider) Retrieve(context.Context) (aws.Credentials, error) {
	return aws.Credentials{}, errors.New("no ambient credentials")
}

func TestNewSigV4_CredentialsError(t *testing.T) {
	s, err := NewSigV4(aws.Config{Region: "us-east-1", Credentials: failingProvider{}}, "")
	if err != nil {
		t.Fatalf("NewSigV4: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, "https://search.example.com/", http.NoBody)

	if err := s.SignRequest(req); err == nil {
		t.Fatal("expected error")
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("request must stay unsigned on credentials error")
	}
}

func TestNewSigV4_Validation(t *testing.T) {
	if _, err := NewSigV4(aws.Config{Region: "us-east-1"}, ""); err == nil {
		t.Error("expected error for missing credentials provider")
	}
	if _, err := NewSigV4(staticConfig(""), ""); err == nil {
		t.Error("expected error for empty region")
	}
}
