// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisoapi

// Iso controls the grub2-mkrescue invocation and post-build checks.
type Iso struct {
	// Pass the grub volume label to xorriso as the ISO volume id.
	SetVolumeId bool `yaml:"setVolumeId" json:"setVolumeId,omitempty"`
	// Open the produced ISO and check that the boot files are present.
	Verify bool `yaml:"verify" json:"verify,omitempty"`
}

func DefaultIso() Iso {
	return Iso{
		Verify: true,
	}
}

func (i *Iso) IsValid() error {
	return nil
}
