// Package audio provides audio file manipulation services including
// ID3 tag writing and playlist generation.
//
// # ID3 Tagging
//
// Use the Tagger to write ID3 tags to fetched MP3 files before they are
// archived:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.SaveTags(path, audio.InfoFor(req), artworkBytes)
//
// The tagger supports:
//   - Title (from the display name)
//   - Album (from the group label)
//   - Artist, Track Number
//   - Cover Art (embedded in MP3)
//
// # Playlist Generation
//
// Generate one playlist per archive folder:
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true) // extended M3U
//	content := creator.CreatePlaylist("Abbey Road", items)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
