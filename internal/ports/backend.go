// Package ports defines the conversion backend interface consumed by the
// acquisition, stem and lyrics services.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/offtune/internal/domain"
)

// ConversionResult is the terminal response of a conversion job: the raw
// decoded audio payload plus whatever metadata the server could extract.
type ConversionResult struct {
	Audio  []byte
	Title  string
	Author string
}

// Backend is the remote conversion/stems/lyrics service. All methods honor
// ctx cancellation; transport failures surface as domain.ErrNetworkFailure
// and non-2xx responses as *domain.BackendError.
type Backend interface {
	// Convert submits a source URL for conversion under the given
	// client-generated request id and blocks until the terminal response.
	Convert(ctx context.Context, sourceURL, requestID string) (ConversionResult, error)

	// Progress reads the conversion progress for a request id, a fraction
	// in [0,1]. Unknown ids report 0.
	Progress(ctx context.Context, requestID string) (float64, error)

	// ScrapeLyrics fetches lyric lines for a song name from one of the
	// backend's fixed set of sources.
	ScrapeLyrics(ctx context.Context, songName string, linkIndex int) ([]string, error)

	// UploadForSeparation posts the song's audio as multipart form data
	// to start a stem separation job.
	UploadForSeparation(ctx context.Context, songID, fileName, mime string, audio []byte) error

	// StemState reads the server-side state of a song's stem job.
	StemState(ctx context.Context, songID string) (domain.StemServerState, error)

	// StemResult reads the terminal payload of a song's stem job.
	StemResult(ctx context.Context, songID string) (domain.StemResult, error)

	// StemCleanup asks the server to drop the job's temporary artifacts.
	// Best effort; callers log failures and move on.
	StemCleanup(ctx context.Context, songID string) error

	// FetchFile downloads a URL to a local path.
	FetchFile(ctx context.Context, url, destPath string) error
}
