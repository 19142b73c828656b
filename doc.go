// Package drivekit provides composable data drivers for Go. A driver
// transforms data on its way down to a deeper driver and back up again, so a
// single Send or Receive call on the outermost driver passes through a stack
// of encodings before the leaf performs the real I/O.
//
// Every driver implements the same [Driver] interface regardless of its
// position in the chain. A caller holding any driver can use it like any
// other, which makes it possible to swap a layer or truncate the chain
// without touching the code above it.
//
// # Leaf Drivers
//
// Leaves perform the external effect and live in their own packages:
//
//   - File (github.com/gobeaver/drivekit/driver/file): advisory-locked file
//     I/O with offset control and line-oriented reads
//   - Memory (github.com/gobeaver/drivekit/driver/memory): an in-process
//     byte stream, mostly useful for tests
//
// # Basic Usage
//
//	leaf, err := file.New(drivekit.Settings{"filename": "records.dat"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	chain, err := drivekit.NewBase64(leaf, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer chain.Close()
//
//	// Appends "SGVsbG8=\n" to records.dat
//	err = chain.Send("Hello")
//
//	// Reads one line back and decodes it
//	data, err := chain.Receive(drivekit.MaxSize)
//
// # Transformation Drivers
//
// Transformation drivers wrap a deeper driver and are constructed with the
// deeper driver and a [Settings] map:
//
//	chain, _ = drivekit.NewCodec(chain, drivekit.Settings{"codec": "json"})
//	chain, _ = drivekit.NewCompression(chain, drivekit.Settings{"algorithm": "zstd"})
//	chain, _ = drivekit.NewEncryption(chain, drivekit.Settings{"key": key})
//	chain, _ = drivekit.NewChecksum(chain, drivekit.Settings{"algorithm": "xxhash"})
//	chain, _ = drivekit.NewReadOnly(chain, nil)
//
// Binary layers (compression, encryption, checksum, cbor) must sit above a
// Base64 driver when the leaf frames its data by lines.
//
// # Settings
//
// Settings are replaced wholesale by [Driver.Reconfigure], which re-runs the
// driver's validation and setup. Reconfiguring a File driver with a new
// filename closes the old handle and opens the new file.
//
// # Error Handling
//
// Errors are returned as [*DriverError] values that match one of the
// sentinel kinds through errors.Is:
//
//	_, err := chain.Receive(drivekit.MaxSize)
//	if drivekit.IsDecoding(err) {
//	    // The stored record could not be reversed
//	}
//
// End of stream is never an error: Receive returns a nil value and a nil
// error.
//
// # Configuration
//
// A conventional chain can be assembled from environment variables named
// BEAVER_DRIVEKIT_* (see [Config], [WithPrefix] and [Stack]).
package drivekit
