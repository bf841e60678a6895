package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"
)

// Formatter formats results for output.
type Formatter interface {
	FormatProjects(w io.Writer, projects []string) error
	FormatVersions(w io.Writer, project string, versions []string) error
	FormatUpload(w io.Writer, result *UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatInfo(w io.Writer, artifact *Artifact) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatProjects prints one project per line.
func (f *HumanFormatter) FormatProjects(w io.Writer, projects []string) error {
	if len(projects) == 0 && !f.Quiet {
		_, _ = fmt.Fprintln(w, "No projects found")
		return nil
	}
	for _, p := range projects {
		_, _ = fmt.Fprintln(w, p)
	}
	return nil
}

// FormatVersions prints one version per line.
func (f *HumanFormatter) FormatVersions(w io.Writer, project string, versions []string) error {
	if len(versions) == 0 && !f.Quiet {
		_, _ = fmt.Fprintf(w, "No versions of %s\n", project)
		return nil
	}
	for _, v := range versions {
		_, _ = fmt.Fprintln(w, v)
	}
	return nil
}

// FormatUpload formats an upload result as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	if f.Quiet {
		return nil
	}
	_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s/%s/%s (%s)\n",
		result.LocalPath, result.Project, result.Version, result.FileName, formatSize(result.Size))
	_, _ = fmt.Fprintf(w, "  SHA256: %s\n", result.SHA256)
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	remote := result.Project + "/" + result.Version + "/" + result.FileName
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", remote, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", remote, result.LocalPath, formatSize(result.Size))
	}
	if result.ETag != "" {
		_, _ = fmt.Fprintf(w, "  SHA256: %s\n", result.ETag)
	}
	return nil
}

// FormatInfo formats artifact metadata as human-readable text.
func (f *HumanFormatter) FormatInfo(w io.Writer, a *Artifact) error {
	_, _ = fmt.Fprintf(w, "Project:      %s\n", a.Project)
	_, _ = fmt.Fprintf(w, "Version:      %s\n", a.Version)
	_, _ = fmt.Fprintf(w, "File:         %s\n", a.FileName)
	_, _ = fmt.Fprintf(w, "Size:         %s\n", formatSize(a.Size))
	_, _ = fmt.Fprintf(w, "Content-Type: %s\n", a.ContentType)
	_, _ = fmt.Fprintf(w, "SHA256:       %s\n", a.SHA256)
	_, _ = fmt.Fprintf(w, "Updated:      %s\n", a.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatProjects formats the project list as a JSON array.
func (f *JSONFormatter) FormatProjects(w io.Writer, projects []string) error {
	return writeJSON(w, nonNil(projects))
}

// FormatVersions formats the version list as JSON.
func (f *JSONFormatter) FormatVersions(w io.Writer, project string, versions []string) error {
	output := struct {
		Project  string   `json:"project"`
		Versions []string `json:"versions"`
	}{
		Project:  project,
		Versions: nonNil(versions),
	}
	return writeJSON(w, output)
}

// FormatUpload formats an upload result as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	output := struct {
		LocalPath   string `json:"local_path"`
		ID          string `json:"id"`
		Project     string `json:"project"`
		Version     string `json:"version"`
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
		SHA256      string `json:"sha256"`
		Size        int64  `json:"size_bytes"`
		CreatedAt   string `json:"created_at"`
	}{
		LocalPath:   result.LocalPath,
		ID:          result.ID.String(),
		Project:     result.Project,
		Version:     result.Version,
		FileName:    result.FileName,
		ContentType: result.ContentType,
		SHA256:      result.SHA256,
		Size:        result.Size,
		CreatedAt:   result.CreatedAt.Format(time.RFC3339),
	}
	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatInfo formats artifact metadata as JSON.
func (f *JSONFormatter) FormatInfo(w io.Writer, a *Artifact) error {
	return writeJSON(w, a)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	// Calculate column widths
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Endpoint) > maxEndpointLen {
			maxEndpointLen = len(profiles[i].Endpoint)
		}
	}
	maxNameLen = min(maxNameLen, 20)
	maxEndpointLen = min(maxEndpointLen, 50)

	// Print header
	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "TOKEN")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	// Print profiles
	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, maskSecret(p.Token, showSecrets))
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Token:    %s\n", maskSecret(profile.Token, showSecrets))
	if len(profile.Projects) > 0 {
		_, _ = fmt.Fprintln(w, "Projects:")
		for _, project := range slices.Sorted(maps.Keys(profile.Projects)) {
			_, _ = fmt.Fprintf(w, "  %-20s %s\n", project, maskSecret(profile.Projects[project], showSecrets))
		}
	}
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Token    string `json:"token,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			Token:    maskSecret(p.Token, showSecrets),
			Default:  p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	output := struct {
		Name     string            `json:"name"`
		Endpoint string            `json:"endpoint"`
		Token    string            `json:"token"`
		Projects map[string]string `json:"projects,omitempty"`
		Default  bool              `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		Token:    maskSecret(profile.Token, showSecrets),
		Default:  isDefault,
	}
	if len(profile.Projects) > 0 {
		output.Projects = make(map[string]string, len(profile.Projects))
		for project, tok := range profile.Projects {
			output.Projects[project] = maskSecret(tok, showSecrets)
		}
	}

	return writeJSON(w, output)
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
