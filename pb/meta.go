// Package pb holds the wire message types for the two protobuf schemas
// treated as opaque here: the meta-service control-plane protocol and the
// data-node key/value protocol. They are hand-maintained gogo/protobuf
// messages (no .proto/protoc step in this repo).
package pb

import "github.com/gogo/protobuf/proto"

// MetaType enumerates meta-service request kinds.
type MetaType int32

const (
	MetaType_INIT MetaType = iota
	MetaType_DROPTABLE
	MetaType_PULL
	MetaType_SETMASTER
	MetaType_ADDSLAVE
	MetaType_REMOVESLAVE
	MetaType_LISTMETA
	MetaType_LISTNODE
	MetaType_LISTTABLE
)

// MetaStatusCode enumerates meta-response outcomes.
type MetaStatusCode int32

const (
	MetaStatusCode_OK MetaStatusCode = iota
	MetaStatusCode_ERROR
)

// NodeInfo is the wire form of a node address inside meta payloads.
type NodeInfo struct {
	IP   string `protobuf:"bytes,1,opt,name=ip" json:"ip,omitempty"`
	Port int32  `protobuf:"varint,2,opt,name=port" json:"port,omitempty"`
}

func (m *NodeInfo) Reset()         { *m = NodeInfo{} }
func (m *NodeInfo) String() string { return proto.CompactTextString(m) }
func (m *NodeInfo) ProtoMessage()  {}

// BasicCmdUnit names a (table, partition, node) triple, used by
// SetMaster/AddSlave/RemoveSlave.
type BasicCmdUnit struct {
	Name      string    `protobuf:"bytes,1,opt,name=name" json:"name,omitempty"`
	Partition int32     `protobuf:"varint,2,opt,name=partition" json:"partition,omitempty"`
	Node      *NodeInfo `protobuf:"bytes,3,opt,name=node" json:"node,omitempty"`
}

func (m *BasicCmdUnit) Reset()         { *m = BasicCmdUnit{} }
func (m *BasicCmdUnit) String() string { return proto.CompactTextString(m) }
func (m *BasicCmdUnit) ProtoMessage()  {}

// MetaRequest is the single request envelope for every meta RPC; only the
// field matching Type is populated, oneof-style.
type MetaRequest struct {
	Type        MetaType      `protobuf:"varint,1,opt,name=type" json:"type,omitempty"`
	InitName    string        `protobuf:"bytes,2,opt,name=init_name" json:"init_name,omitempty"`
	InitNum     int32         `protobuf:"varint,3,opt,name=init_num" json:"init_num,omitempty"`
	DropName    string        `protobuf:"bytes,4,opt,name=drop_name" json:"drop_name,omitempty"`
	PullName    string        `protobuf:"bytes,5,opt,name=pull_name" json:"pull_name,omitempty"`
	SetMaster   *BasicCmdUnit `protobuf:"bytes,6,opt,name=set_master" json:"set_master,omitempty"`
	AddSlave    *BasicCmdUnit `protobuf:"bytes,7,opt,name=add_slave" json:"add_slave,omitempty"`
	RemoveSlave *BasicCmdUnit `protobuf:"bytes,8,opt,name=remove_slave" json:"remove_slave,omitempty"`
}

func (m *MetaRequest) Reset()         { *m = MetaRequest{} }
func (m *MetaRequest) String() string { return proto.CompactTextString(m) }
func (m *MetaRequest) ProtoMessage()  {}

// PartitionInfo is the wire form of one partition's topology.
type PartitionInfo struct {
	Id     int32      `protobuf:"varint,1,opt,name=id" json:"id,omitempty"`
	Master *NodeInfo  `protobuf:"bytes,2,opt,name=master" json:"master,omitempty"`
	Slaves []NodeInfo `protobuf:"bytes,3,rep,name=slaves" json:"slaves,omitempty"`
}

func (m *PartitionInfo) Reset()         { *m = PartitionInfo{} }
func (m *PartitionInfo) String() string { return proto.CompactTextString(m) }
func (m *PartitionInfo) ProtoMessage()  {}

// TableInfo is the wire form of one table's topology, as returned by Pull.
type TableInfo struct {
	Name       string          `protobuf:"bytes,1,opt,name=name" json:"name,omitempty"`
	Partitions []PartitionInfo `protobuf:"bytes,2,rep,name=partitions" json:"partitions,omitempty"`
}

func (m *TableInfo) Reset()         { *m = TableInfo{} }
func (m *TableInfo) String() string { return proto.CompactTextString(m) }
func (m *TableInfo) ProtoMessage()  {}

// MetaNodes is the ListMeta payload: one leader and its followers.
type MetaNodes struct {
	Leader    NodeInfo   `protobuf:"bytes,1,opt,name=leader" json:"leader,omitempty"`
	Followers []NodeInfo `protobuf:"bytes,2,rep,name=followers" json:"followers,omitempty"`
}

func (m *MetaNodes) Reset()         { *m = MetaNodes{} }
func (m *MetaNodes) String() string { return proto.CompactTextString(m) }
func (m *MetaNodes) ProtoMessage()  {}

// NodeStatusEntry is one entry of the ListNode payload.
type NodeStatusEntry struct {
	Node NodeInfo `protobuf:"bytes,1,opt,name=node" json:"node,omitempty"`
	Down bool     `protobuf:"varint,2,opt,name=down" json:"down,omitempty"`
}

func (m *NodeStatusEntry) Reset()         { *m = NodeStatusEntry{} }
func (m *NodeStatusEntry) String() string { return proto.CompactTextString(m) }
func (m *NodeStatusEntry) ProtoMessage()  {}

// MetaResponse is the single response envelope for every meta RPC.
type MetaResponse struct {
	Code       MetaStatusCode    `protobuf:"varint,1,opt,name=code" json:"code,omitempty"`
	Msg        string            `protobuf:"bytes,2,opt,name=msg" json:"msg,omitempty"`
	PullVersion uint64           `protobuf:"varint,3,opt,name=pull_version" json:"pull_version,omitempty"`
	PullInfo   []TableInfo       `protobuf:"bytes,4,rep,name=pull_info" json:"pull_info,omitempty"`
	ListMeta   *MetaNodes        `protobuf:"bytes,5,opt,name=list_meta" json:"list_meta,omitempty"`
	ListNode   []NodeStatusEntry `protobuf:"bytes,6,rep,name=list_node" json:"list_node,omitempty"`
	ListTable  []string          `protobuf:"bytes,7,rep,name=list_table" json:"list_table,omitempty"`
}

func (m *MetaResponse) Reset()         { *m = MetaResponse{} }
func (m *MetaResponse) String() string { return proto.CompactTextString(m) }
func (m *MetaResponse) ProtoMessage()  {}

func init() {
	proto.RegisterType((*MetaRequest)(nil), "zp.MetaRequest")
	proto.RegisterType((*MetaResponse)(nil), "zp.MetaResponse")
}
