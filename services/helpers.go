package services

import (
	"fmt"
	"strings"

	"clanhall/models"
	"clanhall/storage"
)

// unknownPlayerName is shown where a match references a user the
// registry no longer knows (participant removed, account gone).
const unknownPlayerName = "unknown player"

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	// Forward-biased graph with explicit reopen edges.
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusDraft:     {models.StatusOpen},
		models.StatusOpen:      {models.StatusOngoing, models.StatusDraft},
		models.StatusOngoing:   {models.StatusCompleted, models.StatusOpen},
		models.StatusCompleted: {models.StatusOngoing},
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func populateTournamentBannerURL(t *models.Tournament, uploader storage.FileUploader) {
	if t != nil && t.BannerKey != nil && *t.BannerKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*t.BannerKey); url != "" {
			t.BannerURL = &url
		}
	}
}

func populateUserAvatarURL(u *models.User, uploader storage.FileUploader) {
	if u != nil && u.AvatarKey != nil && *u.AvatarKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*u.AvatarKey); url != "" {
			u.AvatarURL = &url
		}
	}
}

func populateMatchReplayURL(m *models.Match, uploader storage.FileUploader) {
	if m != nil && m.ReplayKey != nil && *m.ReplayKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*m.ReplayKey); url != "" {
			m.ReplayURL = &url
		}
	}
}

// GetExtensionFromContentType maps an image content type to a file
// extension for object-storage keys.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: %q", contentType)
	}
}
