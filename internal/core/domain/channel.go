package domain

import "strings"

// DefaultChannel is the nixpkgs branch used when neither the manifest nor settings name a channel.
const DefaultChannel = "nixos-unstable"

const nixpkgsFlakePrefix = "github:NixOS/nixpkgs/"

// ChannelSource records where the effective channel came from.
type ChannelSource string

const (
	// ChannelFromManifest means the manifest pinned the channel.
	ChannelFromManifest ChannelSource = "manifest"
	// ChannelFromSettings means the settings file supplied the channel.
	ChannelFromSettings ChannelSource = "settings"
	// ChannelFromDefault means DefaultChannel was used.
	ChannelFromDefault ChannelSource = "default"
)

// ResolveChannel picks the effective channel: manifest first, then settings, then DefaultChannel.
func ResolveChannel(manifestChannel, settingsChannel string) (string, ChannelSource) {
	if c := strings.TrimSpace(manifestChannel); c != "" {
		return c, ChannelFromManifest
	}
	if c := strings.TrimSpace(settingsChannel); c != "" {
		return c, ChannelFromSettings
	}
	return DefaultChannel, ChannelFromDefault
}

// FlakeRef turns a channel into a flake reference.
// Channels containing ':' are already flake references; anything else names a branch or
// revision of github:NixOS/nixpkgs.
func FlakeRef(channel string) string {
	if strings.Contains(channel, ":") {
		return channel
	}
	return nixpkgsFlakePrefix + channel
}
