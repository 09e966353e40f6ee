package storage

import "testing"

func TestNewUnconfigured(t *testing.T) {
	tests := []struct {
		name                       string
		endpoint, key, secret, bkt string
	}{
		{name: "no endpoint", key: "k", secret: "s", bkt: "b"},
		{name: "no key", endpoint: "http://minio:9000", secret: "s", bkt: "b"},
		{name: "no bucket", endpoint: "http://minio:9000", key: "k", secret: "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.endpoint, "us-east-1", tt.key, tt.secret, tt.bkt)
			if err != nil || c != nil {
				t.Fatalf("New = %v, %v; want nil, nil", c, err)
			}
		})
	}
}

func TestFileURL(t *testing.T) {
	c, err := New("http://minio:9000/", "us-east-1", "k", "s", "images")
	if err != nil || c == nil {
		t.Fatalf("New = %v, %v", c, err)
	}
	if got, want := c.FileURL("7.jpg"), "http://minio:9000/images/products/7.jpg"; got != want {
		t.Errorf("FileURL = %q, want %q", got, want)
	}
}
