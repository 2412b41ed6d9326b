// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sources

import (
	"errors"
	"fmt"

	"github.com/ManuGH/playresilience/internal/manifest"
)

var (
	// ErrInvalidConfiguration is returned by Init for unusable input.
	ErrInvalidConfiguration = errors.New("invalid media sources configuration")

	// ErrFailoverDeclined classifies every failover the policy refused.
	ErrFailoverDeclined = errors.New("failover declined")

	// ErrSourcesExhausted means no candidate is left to promote.
	ErrSourcesExhausted = fmt.Errorf("%w: no sources left to fail over to", ErrFailoverDeclined)

	// ErrNearEndOfContent means static content is about to finish; failing over would only thrash.
	ErrNearEndOfContent = fmt.Errorf("%w: playback is near the end of content", ErrFailoverDeclined)

	// ErrManifestLoad is the manifest load failure class.
	ErrManifestLoad = manifest.ErrManifestLoad
)
