package domain

import (
	"regexp"
	"strings"
)

const (
	MainScriptFilename = "total-conversion-build"
	UserScriptSuffix   = ".user.js"
	MetadataSuffix     = ".meta.js"

	DefaultBuildURL = "https://iitc.app/build"
	IntelMapURL     = "https://intel.ingress.com/intel"
)

// Channel is a build distribution track
type Channel string

const (
	ChannelRelease Channel = "release"
	ChannelBeta    Channel = "beta"
)

// ParseChannel returns the channel for s, falling back to release
func ParseChannel(s string) Channel {
	if Channel(strings.ToLower(strings.TrimSpace(s))) == ChannelBeta {
		return ChannelBeta
	}
	return ChannelRelease
}

// Remote builds content and probe URLs on the distribution site
type Remote struct {
	BaseURL string
	Channel Channel
}

// NewRemote creates a Remote, defaulting an empty base URL
func NewRemote(baseURL string, channel Channel) Remote {
	if baseURL == "" {
		baseURL = DefaultBuildURL
	}
	return Remote{BaseURL: strings.TrimRight(baseURL, "/"), Channel: channel}
}

func (r Remote) channelURL() string {
	return r.BaseURL + "/" + string(r.Channel)
}

// MainScriptURL returns the content URL of the main script
func (r Remote) MainScriptURL() string {
	return r.channelURL() + "/" + MainScriptFilename + UserScriptSuffix
}

// MainScriptProbeURL returns the probe URL of the main script
func (r Remote) MainScriptProbeURL() string {
	return r.channelURL() + "/" + MainScriptFilename + MetadataSuffix
}

// PluginURL returns the content URL of an internal plugin
func (r Remote) PluginURL(filename string) string {
	return r.channelURL() + "/plugins/" + filename + UserScriptSuffix
}

// PluginProbeURL returns the probe URL of an internal plugin
func (r Remote) PluginProbeURL(filename string) string {
	return r.channelURL() + "/plugins/" + filename + MetadataSuffix
}

// unsafeFilenameChars are stripped when deriving a filename from a name
var unsafeFilenameChars = regexp.MustCompile(`[/\\:?%*|"<>]`)

// FilenameFromName derives a file base name from a plugin name
func FilenameFromName(name string) string {
	return strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(name, ""))
}

// FilenameFromURL derives a file base name from the last path segment of a
// script URL. It returns an empty string when nothing usable remains.
func FilenameFromURL(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return strings.TrimSuffix(path, UserScriptSuffix)
}
