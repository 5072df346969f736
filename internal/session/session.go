// Package session handles org.freedesktop.portal.Session objects.
package session

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	"go2tv.app/pwcapture/internal/apis"
	"go2tv.app/pwcapture/internal/convert"
)

const (
	interfaceName = "org.freedesktop.portal.Session"
	closeCallName = interfaceName + ".Close"
)

func Close(path dbus.ObjectPath) error {
	return apis.CallOnObject(path, closeCallName)
}

func GenerateToken() dbus.Variant {
	str := strings.Builder{}
	str.WriteString("pwcapture")
	a, _ := rand.Int(rand.Reader, big.NewInt(1<<16))
	str.WriteString(strconv.FormatUint(a.Uint64(), 16))
	return convert.FromString(str.String())
}
