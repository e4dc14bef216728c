package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyClassify(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()

	tests := []struct {
		name string
		url  string
		want Decision
	}{
		{"allow listed docs domain", "https://doc.rust-lang.org/book/ch04-00.html", DecisionAllow},
		{"allow listed subdomain", "https://tokio.docs.rs/tokio/latest", DecisionAllow},
		{"deny listed video site", "https://www.youtube.com/watch?v=abc123", DecisionDeny},
		{"deny listed blog host", "https://medium.com/some-post", DecisionDeny},
		{"tutorial path on neutral domain", "https://example.com/tutorials/intro", DecisionDeny},
		{"how-to path segment", "https://example.com/how-to/rust", DecisionDeny},
		{"neutral domain and path", "https://example.com/reference/api", DecisionProvisional},
		{"allow list wins over pattern", "https://kubernetes.io/docs/tutorials/hello-minikube/", DecisionAllow},
		{"non http scheme", "ftp://example.com/spec.pdf", DecisionDeny},
		{"unparseable", "http://%zz", DecisionDeny},
		{"missing host", "https:///just-a-path", DecisionDeny},
		{"lookalike domain is not allow listed", "https://docs.rs.evil.example.com/x", DecisionProvisional},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, policy.Classify(tt.url))
		})
	}
}
