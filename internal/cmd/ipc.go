package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hoppxi/ddc-brightness/internal/brightness"
	"github.com/hoppxi/ddc-brightness/internal/manager"
	"github.com/hoppxi/ddc-brightness/pkg/ddc"
)

const ipcTimeout = 8 * time.Second

// commandHandler answers control socket commands against svc. scrollStep
// is read on every UP and DOWN so config reloads take effect.
func commandHandler(svc *brightness.Service, show, quit func(), scrollStep *atomic.Int64) manager.Handler {
	return func(name string, args []string) (string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), ipcTimeout)
		defer cancel()

		switch name {
		case "STATUS":
			st := svc.State()
			if st.Err != nil {
				return "", errors.New(ddc.Reason(st.Err))
			}
			if !st.Known {
				return "unknown", nil
			}
			return fmt.Sprintf("%d%%", st.Value), nil

		case "GET":
			v, err := svc.Refresh(ctx)
			if err != nil {
				return "", errors.New(ddc.Reason(err))
			}
			return strconv.Itoa(v), nil

		case "SET":
			n, err := intArg(name, args)
			if err != nil {
				return "", err
			}
			v, err := svc.Apply(ctx, n)
			if err != nil {
				return "", errors.New(ddc.Reason(err))
			}
			return strconv.Itoa(v), nil

		case "STEP", "UP", "DOWN":
			delta := int(scrollStep.Load())
			switch name {
			case "DOWN":
				delta = -delta
			case "STEP":
				n, err := intArg(name, args)
				if err != nil {
					return "", err
				}
				delta = n
			}
			v, err := svc.Step(ctx, delta)
			if err != nil {
				return "", errors.New(ddc.Reason(err))
			}
			return strconv.Itoa(v), nil

		case "SHOW":
			show()
			return "shown", nil

		case "STOP":
			go quit()
			return "stopping", nil
		}

		return "", fmt.Errorf("%w: %s", manager.ErrUnknownCommand, name)
	}
}

func intArg(name string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s takes exactly one number", name)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: not a number: %q", name, args[0])
	}
	return n, nil
}
