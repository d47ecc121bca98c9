package debver

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genPackageName generates valid Debian binary package names.
func genPackageName() gopter.Gen {
	packages := []interface{}{
		"bunsen-images", "bunsen-images-extra", "bunsen-themes",
		"bunsen-configs", "bunsen-welcome", "bunsen-faenza-icon-theme",
		"libdpkg-perl", "zlib1g", "gcc-12", "g++-12", "libc6",
	}
	return gen.OneConstOf(packages...)
}

// genArchitecture generates common Debian architecture fields.
func genArchitecture() gopter.Gen {
	architectures := []interface{}{
		"all", "amd64", "arm64", "armhf", "i386",
	}
	return gen.OneConstOf(architectures...)
}

// genArtifact generates valid Artifact structs.
func genArtifact() gopter.Gen {
	return gopter.CombineGens(
		genPackageName(),
		genDebVersion(),
		genArchitecture(),
	).Map(func(values []interface{}) *Artifact {
		return &Artifact{
			Package:      values[0].(string),
			Version:      values[1].(string),
			Architecture: values[2].(string),
		}
	})
}

// TestPropertyDebNameRoundTrip checks that String() output always parses
// back into an equivalent Artifact.
func TestPropertyDebNameRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("String() then ParseDebName() returns equivalent Artifact", prop.ForAll(
		func(original *Artifact) bool {
			parsed, err := ParseDebName(original.String())
			if err != nil {
				t.Logf("ParseDebName failed for %q: %v", original.String(), err)
				return false
			}
			return parsed.Package == original.Package &&
				parsed.Version == original.Version &&
				parsed.Architecture == original.Architecture
		},
		genArtifact(),
	))

	properties.TestingRun(t)
}

func TestParseDebName_ValidNames(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		expected *Artifact
	}{
		{
			name: "arch independent",
			file: "bunsen-images_10.5-1_all.deb",
			expected: &Artifact{
				Package:      "bunsen-images",
				Version:      "10.5-1",
				Architecture: "all",
			},
		},
		{
			name: "arch specific",
			file: "bunsen-exit_2.0-3_amd64.deb",
			expected: &Artifact{
				Package:      "bunsen-exit",
				Version:      "2.0-3",
				Architecture: "amd64",
			},
		},
		{
			name: "tilde version",
			file: "bunsen-themes_1.0~rc1-1_all.deb",
			expected: &Artifact{
				Package:      "bunsen-themes",
				Version:      "1.0~rc1-1",
				Architecture: "all",
			},
		},
		{
			name: "full path",
			file: "/var/cache/bunsen-rebuild/out/bunsen-configs_9.2-1_all.deb",
			expected: &Artifact{
				Package:      "bunsen-configs",
				Version:      "9.2-1",
				Architecture: "all",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDebName(tt.file)
			if err != nil {
				t.Fatalf("ParseDebName(%q) returned error: %v", tt.file, err)
			}
			if result.Package != tt.expected.Package {
				t.Errorf("Package = %q, want %q", result.Package, tt.expected.Package)
			}
			if result.Version != tt.expected.Version {
				t.Errorf("Version = %q, want %q", result.Version, tt.expected.Version)
			}
			if result.Architecture != tt.expected.Architecture {
				t.Errorf("Architecture = %q, want %q", result.Architecture, tt.expected.Architecture)
			}
		})
	}
}

func TestParseDebName_InvalidNames(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"empty name", ""},
		{"no underscores", "bunsen-images.deb"},
		{"missing architecture", "bunsen-images_10.5-1.deb"},
		{"wrong extension", "bunsen-images_10.5-1_all.tar.xz"},
		{"uppercase package", "Bunsen-Images_10.5-1_all.deb"},
		{"changes file", "bunsen-images_10.5-1_amd64.changes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDebName(tt.file); err == nil {
				t.Errorf("ParseDebName(%q) should return error", tt.file)
			}
		})
	}
}

func TestArtifact_Slot(t *testing.T) {
	a := &Artifact{Package: "bunsen-images", Version: "10.5-1", Architecture: "all"}
	expected := "bunsen-images_all"
	if got := a.Slot(); got != expected {
		t.Errorf("Slot() = %q, want %q", got, expected)
	}
}
