package update

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// repoTag is one entry of a hosting service's tag listing. Both GitHub and
// GitLab return tags newest first with the tag name in "name".
type repoTag struct {
	Name string `json:"name"`
}

// fetchFromTags asks the hosting service's API for the repository's tags and
// takes the newest one. A leading "v" on the tag name is not part of the
// package version and is stripped.
func (f *Fetcher) fetchFromTags(ctx context.Context, repo string, cfg FetchConfig) (string, error) {
	headers := map[string]string{"Accept": "application/json"}
	if f.authToken != "" {
		headers["Authorization"] = "Bearer " + f.authToken
	}
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	content, err := f.fetchDocument(ctx, f.Service.TagsURL(repo), headers)
	if err != nil {
		return "", err
	}

	var tags []repoTag
	if err := json.Unmarshal(content, &tags); err != nil {
		return "", fmt.Errorf("%w: tag listing for %s: %v", ErrNoVersionFound, repo, err)
	}
	if len(tags) == 0 || tags[0].Name == "" {
		return "", fmt.Errorf("%w: no tags for %s", ErrNoVersionFound, repo)
	}

	return strings.TrimPrefix(tags[0].Name, "v"), nil
}
