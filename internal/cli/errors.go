package cli

import "errors"

var errMissingTaxonomy = errors.New("no catalog type id; pass one or run `annotate config set taxonomy <type-id>`")
