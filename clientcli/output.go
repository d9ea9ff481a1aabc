package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mediafold/mediafold"
)

// Formatter formats results for output.
type Formatter interface {
	FormatList(w io.Writer, listing mediafold.DirectoryListing) error
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatAction(w io.Writer, results []mediafold.FileActionResult) error
	FormatURLs(w io.Writer, urls mediafold.ReadonlyURLs) error
	FormatFilesInfo(w io.Writer, entries []mediafold.FileEntry) error
	FormatRegistry(w io.Writer, page RegistryPage) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatCount(w io.Writer, label string, count int) error
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

// FormatList formats a directory listing as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, listing mediafold.DirectoryListing) error {
	if len(listing.Entries) == 0 {
		_, _ = fmt.Fprintln(w, "No entries found")
		return nil
	}

	// Calculate column widths
	maxKeyLen := 3 // "KEY"
	for i := range listing.Entries {
		if len(listing.Entries[i].Key) > maxKeyLen {
			maxKeyLen = len(listing.Entries[i].Key)
		}
	}
	if maxKeyLen > 60 {
		maxKeyLen = 60
	}

	// Print header
	_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxKeyLen, "KEY", "SIZE", "MODIFIED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxKeyLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	// Print entries
	var files, dirs int
	for i := range listing.Entries {
		entry := &listing.Entries[i]
		key := entry.Key
		if len(key) > maxKeyLen {
			key = key[:maxKeyLen-3] + "..."
		}

		size := formatSize(entry.Size)
		if entry.IsDir {
			size = "(dir)"
			dirs++
		} else {
			files++
		}

		_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n",
			maxKeyLen,
			key,
			size,
			entry.Modified.Format("2006-01-02 15:04:05"),
		)
	}

	// Print summary
	_, _ = fmt.Fprintf(w, "\n%d file(s), %d directory(ies)\n", files, dirs)

	return nil
}

// FormatUpload formats upload results as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s (%s)\n", r.LocalPath, r.FileKey, r.MimeType)
			if r.ThumbnailKey != "" {
				_, _ = fmt.Fprintf(w, "  Thumbnail: %s\n", r.ThumbnailKey)
			}
		}
	}
	return nil
}

// FormatAction formats batch action results as human-readable text.
func (f *HumanFormatter) FormatAction(w io.Writer, results []mediafold.FileActionResult) error {
	for i := range results {
		r := &results[i]
		if !r.Success {
			_, _ = fmt.Fprintf(w, "Error: %s - %s\n", r.Key, r.Error)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "OK: %s\n", r.Key)
		}
	}
	return nil
}

// FormatURLs formats capability URLs as human-readable text.
func (f *HumanFormatter) FormatURLs(w io.Writer, urls mediafold.ReadonlyURLs) error {
	if len(urls.Paths) == 0 {
		_, _ = fmt.Fprintln(w, "No URLs issued")
		return nil
	}
	for key := range urls.Paths {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", key, urls.URLFor(key))
	}
	return nil
}

// FormatFilesInfo formats registry entries as human-readable text.
func (f *HumanFormatter) FormatFilesInfo(w io.Writer, entries []mediafold.FileEntry) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No entries found")
		return nil
	}
	for i := range entries {
		e := &entries[i]
		_, _ = fmt.Fprintf(w, "Key:       %s\n", e.FileKey)
		_, _ = fmt.Fprintf(w, "Entity:    %s\n", e.EntityID)
		_, _ = fmt.Fprintf(w, "Action:    %s\n", e.Action)
		if e.MimeType != "" {
			_, _ = fmt.Fprintf(w, "Type:      %s\n", e.MimeType)
		}
		if e.HasThumbnail() {
			_, _ = fmt.Fprintf(w, "Thumbnail: %s\n", e.ThumbnailKey)
		}
		_, _ = fmt.Fprintf(w, "Recorded:  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"))
		if i < len(entries)-1 {
			_, _ = fmt.Fprintln(w)
		}
	}
	return nil
}

// FormatRegistry formats a registry page as human-readable text.
func (f *HumanFormatter) FormatRegistry(w io.Writer, page RegistryPage) error {
	if err := f.FormatFilesInfo(w, page.Items); err != nil {
		return err
	}
	if page.NextCursor != "" && !f.Quiet {
		_, _ = fmt.Fprintf(w, "\nMore entries: pass --cursor %s\n", page.NextCursor)
	}
	return nil
}

// FormatDownload formats a download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if !f.Quiet {
		if result.LocalPath == "-" {
			_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.Key, formatSize(result.Size))
		} else {
			_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.Key, result.LocalPath, formatSize(result.Size))
		}
	}
	return nil
}

// FormatCount formats a server-side maintenance count as human-readable text.
func (f *HumanFormatter) FormatCount(w io.Writer, label string, count int) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "%s: %d\n", label, count)
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
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
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxEndpointLen > 50 {
		maxEndpointLen = 50
	}

	// Print header
	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "USERNAME")
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

		username := maskSecret(p.Username, showSecrets)

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, username)
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
	_, _ = fmt.Fprintf(w, "Username: %s\n", maskSecret(profile.Username, showSecrets))
	_, _ = fmt.Fprintf(w, "Password: %s\n", maskSecret(profile.Password, showSecrets))
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatList formats a directory listing as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, listing mediafold.DirectoryListing) error {
	return writeJSON(w, listing)
}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		LocalPath    string `json:"local_path"`
		FileKey      string `json:"file_key,omitempty"`
		EntityID     string `json:"entity_id,omitempty"`
		MimeType     string `json:"mime_type,omitempty"`
		ThumbnailKey string `json:"thumbnail_key,omitempty"`
		Error        string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{
			LocalPath: r.LocalPath,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			jr.FileKey = r.FileKey
			jr.EntityID = r.EntityID
			jr.MimeType = r.MimeType
			jr.ThumbnailKey = r.ThumbnailKey
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatAction formats batch action results as JSON.
func (f *JSONFormatter) FormatAction(w io.Writer, results []mediafold.FileActionResult) error {
	output := struct {
		Results []mediafold.FileActionResult `json:"results"`
	}{
		Results: results,
	}
	return writeJSON(w, output)
}

// FormatURLs formats capability URLs as JSON.
func (f *JSONFormatter) FormatURLs(w io.Writer, urls mediafold.ReadonlyURLs) error {
	return writeJSON(w, urls)
}

// FormatFilesInfo formats registry entries as JSON.
func (f *JSONFormatter) FormatFilesInfo(w io.Writer, entries []mediafold.FileEntry) error {
	return writeJSON(w, entries)
}

// FormatRegistry formats a registry page as JSON.
func (f *JSONFormatter) FormatRegistry(w io.Writer, page RegistryPage) error {
	return writeJSON(w, page)
}

// FormatDownload formats a download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatCount formats a server-side maintenance count as JSON.
func (f *JSONFormatter) FormatCount(w io.Writer, label string, count int) error {
	output := struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}{
		Label: label,
		Count: count,
	}
	return writeJSON(w, output)
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

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Username string `json:"username,omitempty"`
		Password string `json:"password,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		jp := jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			Default:  p.Name == defaultName,
		}
		if showSecrets {
			jp.Username = p.Username
			jp.Password = p.Password
		} else {
			jp.Username = maskSecret(p.Username, false)
			jp.Password = maskSecret(p.Password, false)
		}
		output.Profiles[i] = jp
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Username string `json:"username"`
		Password string `json:"password"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		Default:  isDefault,
	}

	if showSecrets {
		output.Username = profile.Username
		output.Password = profile.Password
	} else {
		output.Username = maskSecret(profile.Username, false)
		output.Password = maskSecret(profile.Password, false)
	}

	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
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
