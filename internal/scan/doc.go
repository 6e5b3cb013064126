// Package scan turns an ambiguous keystroke-emulating input stream into
// settled, validated identifiers.
//
// Hardware RFID readers present themselves as keyboards, so the only
// signal separating a reader from a human is arrival shape: readers
// append several characters per observation, humans append one. The
// Classifier latches to manual on the first human-shaped observation
// (sticky classification), the Gate debounces observations into a single
// settled value per burst, and NormalizeIdentifier rejects anything that
// is not an 8-character alphanumeric code before it can reach a lookup.
package scan
