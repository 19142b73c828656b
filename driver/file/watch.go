package file

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/gobeaver/drivekit"
)

// Watch returns a token that changes the first time the file is written or
// recreated, by this driver or by anyone else. The watcher goroutine exits
// when the token fires or ctx is done.
func (d *Driver) Watch(ctx context.Context) (drivekit.ChangeToken, error) {
	d.mu.RLock()
	name, open := d.filename, d.f != nil
	d.mu.RUnlock()
	if !open {
		return nil, d.fail("watch", drivekit.ErrIO, drivekit.ErrClosed)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, d.fail("watch", drivekit.ErrIO, err)
	}
	if err := w.Add(name); err != nil {
		w.Close()
		return nil, d.fail("watch", drivekit.ErrIO, err)
	}

	token := drivekit.NewCallbackChangeToken()
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					token.SignalChange()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				d.logger.Warn("watch error", "path", name, "error", err)
			}
		}
	}()

	return token, nil
}
