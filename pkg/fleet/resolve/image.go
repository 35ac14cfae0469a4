package resolve

import "context"

// ImageSource answers "what is the latest machine image matching the
// fixed search filter". The AWS collaborator implements it; offline
// compilation uses StaticImageSource.
type ImageSource interface {
	LatestImage(ctx context.Context) (string, error)
}

// ImageFilter is the fixed search filter for the default machine image.
// The most recent image satisfying every entry wins.
var ImageFilter = map[string][]string{
	"architecture":        {"x86_64"},
	"root-device-type":    {"ebs"},
	"virtualization-type": {"hvm"},
	"state":               {"available"},
}

type StaticImageSource struct {
	ID string
}

func (s StaticImageSource) LatestImage(ctx context.Context) (string, error) {
	return s.ID, nil
}
