// Copyright 2025 The netrace Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package netrace

// NumPacketTypes is the width of the packet-type classification table.
const NumPacketTypes = 31

// NumNodeTypes is the number of real node classes (the table carries one
// extra "invalid" fallback entry after these).
const NumNodeTypes = 4

// Node classes, packed two to a byte in Packet.NodeTypes.
const (
	NodeL1D = 0
	NodeL1I = 1
	NodeL2  = 2
	NodeMC  = 3
)

// Packet type indices with defined meaning; all other indices in
// [0, NumPacketTypes) name InvalidCmd.
const (
	PacketInvalidCmd             = 0
	PacketReadReq                = 1
	PacketReadResp               = 2
	PacketReadRespWithInvalidate = 3
	PacketWriteReq               = 4
	PacketWriteResp              = 5
	PacketWriteback              = 6
	PacketUpgradeReq             = 13
	PacketUpgradeResp            = 14
	PacketReadExReq              = 15
	PacketReadExResp             = 16
	PacketBadAddressError        = 25
	PacketInvalidateReq          = 27
	PacketInvalidateResp         = 28
	PacketDowngradeReq           = 29
	PacketDowngradeResp          = 30
)

var packetTypeNames = [NumPacketTypes]string{
	"InvalidCmd", "ReadReq", "ReadResp",
	"ReadRespWithInvalidate", "WriteReq", "WriteResp",
	"Writeback", "InvalidCmd", "InvalidCmd", "InvalidCmd",
	"InvalidCmd", "InvalidCmd", "InvalidCmd", "UpgradeReq",
	"UpgradeResp", "ReadExReq", "ReadExResp", "InvalidCmd",
	"InvalidCmd", "InvalidCmd", "InvalidCmd", "InvalidCmd",
	"InvalidCmd", "InvalidCmd", "InvalidCmd", "BadAddressError",
	"InvalidCmd", "InvalidateReq", "InvalidateResp",
	"DowngradeReq", "DowngradeResp",
}

var packetSizes = [NumPacketTypes]int{
	-1, 8, 72,
	72, 72, 8,
	72, -1, -1, -1,
	-1, -1, -1, 8,
	8, 8, 72, -1,
	-1, -1, -1, -1,
	-1, -1, -1, 8,
	-1, 8, 8,
	8, 72,
}

var nodeTypeNames = [NumNodeTypes + 1]string{
	"L1 Data Cache", "L1 Instruction Cache",
	"L2 Cache", "Memory Controller", "Invalid Node Type",
}

// PacketTypeName returns the name of a packet type, falling back to
// "InvalidCmd" for an out-of-range index.
func PacketTypeName(t uint8) string {
	if int(t) < NumPacketTypes {
		return packetTypeNames[t]
	}
	return packetTypeNames[PacketInvalidCmd]
}

// PacketSize returns the on-wire payload size in bytes for a packet type, or
// -1 if the type carries no fixed size (InvalidCmd).
func PacketSize(t uint8) int {
	if int(t) < NumPacketTypes {
		return packetSizes[t]
	}
	return packetSizes[PacketInvalidCmd]
}

// NodeTypeName returns the name of a node class, falling back to the
// "Invalid Node Type" entry for an out-of-range index.
func NodeTypeName(t int) string {
	if t >= 0 && t < NumNodeTypes {
		return nodeTypeNames[t]
	}
	return nodeTypeNames[NumNodeTypes]
}
