// Package logger provides leveled logging for lockbox commands.
//
// Verbosity is controlled by two flags:
//
//   - --verbose: info and warning messages
//   - --debug: everything, including per-step protocol traces
//
// Without flags only errors and critical warnings are shown.
//
// # Log Methods
//
//	Logger.Infof()       // --verbose or --debug
//	Logger.Debugf()      // --debug only
//	Logger.Warnf()       // --verbose or --debug
//	Logger.WarnfAlways() // always
//	Logger.Errorf()      // always
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Debugf("fetched owner envelope for file %s", fileID)
//
// Never pass key material, passphrases or plaintext to a log call. Identity
// and file ids are fine.
//
// The zero value is a silent logger apart from errors, which makes it a safe
// default for library code.
package logger
