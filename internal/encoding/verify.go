package encoding

import (
	"log/slog"

	"cdrip/internal/audiofile"
	"cdrip/internal/logging"
)

// verifyWrittenTags reads the encoded file back and warns on mismatches. It
// never fails the track.
func verifyWrittenTags(logger *slog.Logger, req Request) {
	got, err := audiofile.ReadTags(req.OutputPath)
	if err != nil {
		logging.WarnWithContext(logger, "tag verification skipped", "tag_verify_unreadable",
			logging.String("output", req.OutputPath),
			logging.Error(err),
		)
		return
	}

	want := TagsFor(req.Track, req.Album)
	var mismatched []string
	if got.Title != want.Title {
		mismatched = append(mismatched, "title")
	}
	if got.Album != want.Album {
		mismatched = append(mismatched, "album")
	}
	if got.TrackNumber != want.TrackNumber {
		mismatched = append(mismatched, "track_number")
	}
	if len(mismatched) == 0 {
		logger.Debug("tags verified", logging.String("output", req.OutputPath))
		return
	}
	logging.WarnWithContext(logger, "written tags differ from album metadata", "tag_verify_mismatch",
		logging.String("output", req.OutputPath),
		logging.Any("fields", mismatched),
		logging.String(logging.FieldErrorHint, "check the muxer supports tag events for this format"),
	)
}
