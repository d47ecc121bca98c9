package hosting

import (
	"errors"
	"testing"
)

func TestGitHubService_URLs(t *testing.T) {
	s := NewGitHubService("BunsenLabs", "master")

	wantChangelog := "https://raw.githubusercontent.com/BunsenLabs/bunsen-images/master/debian/changelog"
	if got := s.ChangelogURL("bunsen-images"); got != wantChangelog {
		t.Errorf("ChangelogURL = %q, want %q", got, wantChangelog)
	}

	wantArchive := "https://github.com/BunsenLabs/bunsen-images/archive/refs/heads/master.tar.gz"
	if got := s.ArchiveURL("bunsen-images"); got != wantArchive {
		t.Errorf("ArchiveURL = %q, want %q", got, wantArchive)
	}

	wantTags := "https://api.github.com/repos/BunsenLabs/bunsen-images/tags"
	if got := s.TagsURL("bunsen-images"); got != wantTags {
		t.Errorf("TagsURL = %q, want %q", got, wantTags)
	}
}

func TestGitHubService_DefaultBranch(t *testing.T) {
	s := NewGitHubService("BunsenLabs", "")
	if s.Branch != "master" {
		t.Errorf("Expected default branch 'master', got %q", s.Branch)
	}
}

func TestGitLabService_URLs(t *testing.T) {
	s := NewGitLabService("bunsenlabs", "main")

	wantChangelog := "https://gitlab.com/bunsenlabs/bunsen-images/-/raw/main/debian/changelog"
	if got := s.ChangelogURL("bunsen-images"); got != wantChangelog {
		t.Errorf("ChangelogURL = %q, want %q", got, wantChangelog)
	}

	wantArchive := "https://gitlab.com/bunsenlabs/bunsen-images/-/archive/main/bunsen-images-main.tar.gz"
	if got := s.ArchiveURL("bunsen-images"); got != wantArchive {
		t.Errorf("ArchiveURL = %q, want %q", got, wantArchive)
	}

	wantTags := "https://gitlab.com/api/v4/projects/bunsenlabs%2Fbunsen-images/repository/tags"
	if got := s.TagsURL("bunsen-images"); got != wantTags {
		t.Errorf("TagsURL = %q, want %q", got, wantTags)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantName string
		wantErr  error
	}{
		{"github", "github", "GitHub (BunsenLabs)", nil},
		{"gitlab", "gitlab", "GitLab (BunsenLabs)", nil},
		{"empty defaults to github", "", "GitHub (BunsenLabs)", nil},
		{"unknown provider", "sourcehut", "", ErrInvalidProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.provider, "BunsenLabs", "master")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := s.Name(); got != tt.wantName {
				t.Errorf("Name() = %q, want %q", got, tt.wantName)
			}
		})
	}
}
