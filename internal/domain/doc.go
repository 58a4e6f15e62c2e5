// Package domain contains the entities of the card dealer: packs and cards as
// read from storage, tag filters, weighted dealers, studies, and saved query
// trees. Selection itself lives in the selection subpackage; this package only
// turns stored entities into selection inputs.
package domain
