package crosconfig

import (
	"fmt"
	"strings"

	"github.com/crosconfig/crosconfig-go/pkg/log"
)

// Property names and values used by model queries.
const (
	FirmwarePath  = "/firmware"
	TouchPath     = "/touch"
	TouchTypeProp = "touch-type"

	BCSOverlayProp      = "bcs-overlay"
	FirmwareBinProp     = "firmware-bin"
	FirmwareSymlinkProp = "firmware-symlink"

	// ModelVar is the synthetic template variable holding the upper-cased
	// model name.
	ModelVar = "MODEL"

	overlayPrefix = "overlay-"
	bcsScheme     = "bcs://"
	imageSuffix   = "-image"
)

// firmwareURIFormat takes the overlay twice, the model name and the image
// filename.
const firmwareURIFormat = "gs://chromeos-binaries/HOME/bcs-%s/overlay-%s/chromeos-base/chromeos-firmware-%s/%s"

// TouchFile names a touch controller firmware binary and the symlink that
// should point at it.
type TouchFile struct {
	Firmware string `json:"firmware" yaml:"firmware"`
	Symlink  string `json:"symlink" yaml:"symlink"`
}

// Model is a child of the models node describing one hardware variant.
type Model struct {
	*Node
}

// GetFirmwareURIs returns the download URIs of the model's bcs:// firmware
// images, in merged property order. It returns an empty list when the model
// has no firmware node or no bcs-overlay.
func (m *Model) GetFirmwareURIs() ([]string, error) {
	firmware, err := m.ChildNodeFromPath(FirmwarePath)
	if err != nil || firmware == nil {
		return nil, err
	}
	props, err := firmware.GetMergedProperties(SharesProp)
	if err != nil {
		return nil, err
	}

	ov, ok := props.Get(BCSOverlayProp)
	if !ok {
		return nil, nil
	}
	overlay, ok := ov.Str()
	if !ok {
		err := fmt.Errorf("%w: %s %q is %s", ErrNotString, firmware.path, BCSOverlayProp, ov.Kind())
		m.arena.traceError(firmware.path, BCSOverlayProp, "firmware uris", err)
		return nil, err
	}
	overlay = strings.TrimPrefix(overlay, overlayPrefix)

	var uris []string
	for name, v := range props.All() {
		if !strings.HasSuffix(name, imageSuffix) {
			continue
		}
		image, ok := v.Str()
		if !ok {
			continue
		}
		file, ok := strings.CutPrefix(image, bcsScheme)
		if !ok {
			continue
		}
		uris = append(uris, fmt.Sprintf(firmwareURIFormat, overlay, overlay, m.name, file))
	}
	return uris, nil
}

// GetTouchFirmwareFiles returns the firmware file pair of every device under
// the model's touch node, keyed by device name. Each device's properties are
// merged with its touch-type node and given a MODEL variable before the
// firmware-bin and firmware-symlink templates are expanded.
func (m *Model) GetTouchFirmwareFiles() (map[string]TouchFile, error) {
	touch, err := m.ChildNodeFromPath(TouchPath)
	if err != nil {
		return nil, err
	}
	if touch == nil {
		err := fmt.Errorf("%w: %s%s", ErrNodeNotFound, m.path, TouchPath)
		m.arena.traceError(m.path, "", "touch firmware files", err)
		return nil, err
	}

	files := make(map[string]TouchFile, len(touch.subnodes))
	for _, device := range touch.subnodes {
		props, err := device.GetMergedProperties(TouchTypeProp)
		if err != nil {
			return nil, err
		}
		props.SetString(ModelVar, strings.ToUpper(m.name))

		firmware, err := m.touchFilename(device, props, FirmwareBinProp)
		if err != nil {
			return nil, err
		}
		symlink, err := m.touchFilename(device, props, FirmwareSymlinkProp)
		if err != nil {
			return nil, err
		}
		files[device.name] = TouchFile{Firmware: firmware, Symlink: symlink}
	}
	return files, nil
}

func (m *Model) touchFilename(device *Node, props *PropertyMap, templateProp string) (string, error) {
	name, err := GetTouchFilename(device.path, props, templateProp)
	if err != nil {
		m.arena.traceError(device.path, templateProp, "touch filename", err)
		return "", err
	}

	tmpl, _ := props.GetString(templateProp)
	m.arena.trace(log.Event{
		Category: log.CategoryTemplate,
		NodePath: device.path,
		Property: templateProp,
		Template: &log.TemplateEvent{Template: strings.ReplaceAll(tmpl, "$", ""), Result: name},
	})
	return name, nil
}

var _ Traverser = (*Model)(nil)
