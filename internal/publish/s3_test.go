package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/starford/coursepress/internal/testutil"
)

type fakePutter struct {
	puts map[string]*s3.PutObjectInput
	body map[string]string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := aws.ToString(in.Key)
	data, _ := io.ReadAll(in.Body)
	f.puts[key] = in
	f.body[key] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func newFake() *fakePutter {
	return &fakePutter{puts: map[string]*s3.PutObjectInput{}, body: map[string]string{}}
}

func writeArtifacts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sections"), 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "posts.json"), []byte("[]"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "sections", "ai.json"), []byte("[1]"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "sitemap.xml"), []byte("<urlset/>"), 0o644)
	return dir
}

func TestPublish_UploadsWithPrefixAndHeaders(t *testing.T) {
	dir := writeArtifacts(t)
	fake := newFake()
	p := newPublisher(fake, Config{Bucket: "site", Prefix: "/content/", CacheControl: "max-age=60"}, testutil.Logger())

	err := p.Publish(context.Background(), dir, []string{"posts.json", "sections/ai.json", "sitemap.xml"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	in, ok := fake.puts["content/sections/ai.json"]
	if !ok {
		t.Fatalf("missing key, got %v", fake.puts)
	}
	if aws.ToString(in.Bucket) != "site" || aws.ToString(in.ContentType) != "application/json" {
		t.Errorf("input = %+v", in)
	}
	if aws.ToString(in.CacheControl) != "max-age=60" {
		t.Errorf("cache control = %q", aws.ToString(in.CacheControl))
	}
	if fake.body["content/sections/ai.json"] != "[1]" {
		t.Errorf("body = %q", fake.body["content/sections/ai.json"])
	}
	if aws.ToString(fake.puts["content/sitemap.xml"].ContentType) != "application/xml" {
		t.Error("sitemap content type")
	}
}

func TestPublish_StopsOnError(t *testing.T) {
	dir := writeArtifacts(t)
	fake := newFake()
	fake.err = errors.New("denied")
	p := newPublisher(fake, Config{Bucket: "site"}, testutil.Logger())

	if err := p.Publish(context.Background(), dir, []string{"posts.json"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPublish_MissingFile(t *testing.T) {
	p := newPublisher(newFake(), Config{Bucket: "site"}, testutil.Logger())
	if err := p.Publish(context.Background(), t.TempDir(), []string{"posts.json"}); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	if _, err := NewS3(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error without bucket")
	}
}
