package fetch

import (
	"testing"
)

func TestContentsURL(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		suite string
		comp  string
		arch  string
		want  string
	}{
		{
			name: "default layout",
			base: "http://ftp.uk.debian.org/debian", suite: "stable", comp: "main",
			arch: "amd64",
			want: "http://ftp.uk.debian.org/debian/dists/stable/main/Contents-amd64.gz",
		},
		{
			name: "trailing slash on base is trimmed",
			base: "http://mirror.example/debian/", suite: "stable", comp: "main",
			arch: "arm64",
			want: "http://mirror.example/debian/dists/stable/main/Contents-arm64.gz",
		},
		{
			name: "non-default suite and component",
			base: "http://mirror.example/debian", suite: "testing", comp: "contrib",
			arch: "mips",
			want: "http://mirror.example/debian/dists/testing/contrib/Contents-mips.gz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentsURL(tt.base, tt.suite, tt.comp, tt.arch); got != tt.want {
				t.Errorf("ContentsURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBaseMirrorPrecedence(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(MirrorEnvVar, "http://env.example/debian")
		if got := BaseMirror("http://flag.example/debian"); got != "http://flag.example/debian" {
			t.Errorf("BaseMirror = %q, want flag value", got)
		}
	})

	t.Run("env over default", func(t *testing.T) {
		t.Setenv(MirrorEnvVar, "http://env.example/debian")
		if got := BaseMirror(""); got != "http://env.example/debian" {
			t.Errorf("BaseMirror = %q, want env value", got)
		}
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv(MirrorEnvVar, "")
		if got := BaseMirror(""); got != DefaultMirror {
			t.Errorf("BaseMirror = %q, want %q", got, DefaultMirror)
		}
	})
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		prefix  string
		wantErr bool
	}{
		{uri: "s3://indexes", bucket: "indexes"},
		{uri: "s3://indexes/debian/stable", bucket: "indexes", prefix: "debian/stable"},
		{uri: "s3://indexes/debian/", bucket: "indexes", prefix: "debian"},
		{uri: "http://not-s3.example", wantErr: true},
		{uri: "s3:///missing-bucket", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, prefix, err := ParseS3URI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseS3URI: %v", err)
			}
			if bucket != tt.bucket || prefix != tt.prefix {
				t.Errorf("got (%q, %q), want (%q, %q)", bucket, prefix, tt.bucket, tt.prefix)
			}
		})
	}
}

func TestContentsFilename(t *testing.T) {
	if got := ContentsFilename("amd64"); got != "Contents-amd64.gz" {
		t.Errorf("ContentsFilename = %q, want Contents-amd64.gz", got)
	}
}
